/*
Package reel is a slot-filling dialogue manager that recommends movies, and
an agenda-based simulated user to talk to it.

# Concept

A dialogue manager tracks which slots the user has filled, looks matching
movies up in a database and chooses the next system acts with a handcrafted
policy. An agent wraps the manager with natural language understanding and
generation, so it speaks in utterances rather than acts. The simulated user
follows an agenda of intents sampled from a corpus of real dialogues, which
makes it possible to run thousands of conversations without a human.

# Usage

NewAgent wires the defaults: the built-in movie ontology, an in-memory
catalog, the rule-based NLU and the template NLG.

	a, err := reel.NewAgent(records, reel.WithSeed(7))
	if err != nil {
		log.Fatal(err)
	}
	a.Initialize()
	fmt.Println(a.StartDialogue(ctx))
	reply, err := a.ContinueDialogue(ctx, "I like Comedy movies")

The packages under pkg/ can be assembled by hand for anything else:
pkg/dialogue for the manager, pkg/agent for the conversational wrapper,
pkg/simulation for the simulated user and pkg/conversation to make them
talk. The reel command runs simulations, an interactive chat and an HTTP
server over the same pieces.
*/
package reel
