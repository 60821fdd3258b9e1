/*
Package domain contains the core dialogue model of the reel recommender.

It defines the structured units exchanged between the user and the system
(dialogue acts), the per-dialogue slot state and the cross-turn offer/feedback
context. This package is kept pure and free of I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - Act: A communicative intent (inform, request, offer, ...) plus slot/value items.
  - State: The per-dialogue slot-filling snapshot (filled slots, item in focus, turn).
  - Context: Offer tracking and feedback flags that survive across turns.
  - Snapshot: The persisted unit needed to resume a dialogue.
*/
package domain
