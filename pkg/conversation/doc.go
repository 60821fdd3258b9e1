/*
Package conversation drives dialogues between the agent and a simulated
user, or between the agent and a person on a terminal.

# Usage

	m := conversation.NewManager(user, agent, conversation.WithLogger(logger))
	res, err := m.Run(ctx, simulation.AgendaOurs, true)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(res.Dialog), res.Persona.Movies)

RunBatch runs many independent simulations concurrently, each on its own
Manager built by a factory.
*/
package conversation
