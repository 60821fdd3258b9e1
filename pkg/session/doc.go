/*
Package session serializes access to dialogue snapshots.

A Manager wraps a ports.StateStore with per-session mutexes, reference
counted so idle sessions leave nothing behind, and optionally a
ports.DistributedLocker when several replicas share one store.
*/
package session
