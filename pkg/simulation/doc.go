// Package simulation implements an agenda-based simulated user.
//
// An annotated corpus yields transition statistics (BuildStats). An agenda
// of user intents is sampled from them (SampleAgenda) and consumed turn by
// turn: a system reply that answers the pending intent advances the agenda,
// any other reply triggers a reactive intent drawn from what users did after
// that system intent in the corpus. Profiles drive the opinions the user
// expresses about the movies it is offered.
package simulation
