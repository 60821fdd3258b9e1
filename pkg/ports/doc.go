/*
Package ports defines the driven ports (interfaces) of the reel dialogue system.

These interfaces decouple the dialogue core from external implementations, allowing
the manager to work with various databases, language components and storage backends.

# Key Interfaces

  - Database: Looks up the records matching the current dialogue state (SQLite, JSON, Memory).
  - Policy: Decides the system acts for a state and context.
  - NLU / NLG: Turn user text into acts and system acts into text.
  - StateStore: Persists dialogue snapshots so a session can be resumed.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
