// Package recorder keeps what happened in a dialogue: Episodes stores
// independent state snapshots per turn, Conversation stores the transcript
// lines and the end-of-dialogue summary.
package recorder
