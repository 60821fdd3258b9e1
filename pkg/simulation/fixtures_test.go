package simulation_test

import (
	"github.com/aretw0/reel/pkg/simulation"
)

func turn(speaker, text, intent string) simulation.Turn {
	return simulation.Turn{Speaker: speaker, Text: text, Intent: intent}
}

func user(text, intent string) simulation.Turn {
	return turn(simulation.UserTag, text, intent)
}

func agent(text, intent string) simulation.Turn {
	return turn(simulation.AgentTag, text, intent)
}

// fixtureCorpus has one long and one short dialogue.
func fixtureCorpus() simulation.Corpus {
	return simulation.Corpus{
		"d1": {
			user("Hello", "Non-disclose"),
			agent("How can I help you?", "Elicit"),
			user("I like comedy movies", "Disclose"),
			agent(`There is a movie named "Up". Have you watched it?`, "List"),
			user("No", "Note"),
			agent("Thank you for your feedback.", "Record"),
			user("Thanks, bye", "Complete"),
			agent("Thank you, Goodbye.", "End"),
		},
		"d2": {
			user("Hello", "Non-disclose"),
			agent("How can I help you?", "Elicit"),
			user("I enjoy drama movies", "Disclose"),
			agent("It was directed by Michael Mann.", "Show"),
			user("Bye", "Complete"),
		},
	}
}
