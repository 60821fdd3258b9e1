// Package nlg renders text on both sides of a conversation.
//
// MovieNLG turns the system's dialogue acts into a single utterance.
// Templates turns a simulated-user intent and its arguments into text, using
// one of the embedded template sets ("ms", "mb", "ac") or a custom YAML or
// JSON file that a Watcher can reload while a simulation runs.
package nlg
