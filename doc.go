/*
Package rollcall is a conversational attendance taker for small-group ministries.

A user is walked through a fixed sequence of prompts (verification code, cell group,
month, day, attendees, valid absentees) over a chat transport. The answers are
reconciled against a roster and attendance store when the conversation finishes:
names already recorded for the meeting are skipped, newcomers are enrolled in the
cell group's roster, and everything else is written exactly once.

# Architecture

The engine is transport agnostic. A host (Telegram bot, HTTP API, MCP server or the
console) feeds each inbound message to Engine.Handle and delivers the returned Reply.
Storage is reached through ports.Gateway, and in-progress conversations live in a
ports.SessionStore guarded per chat by a session.Manager.

# Usage

	gw := memory.NewGatewayWithRoster(map[string][]string{
		"Bouquet": {"Alice", "Bob", "Carol"},
	}, "Member", domain.MustParseDate("2000-01-01"))

	eng, err := rollcall.New(gw, "secret-code")
	if err != nil {
		log.Fatal(err)
	}

	reply, err := eng.Handle(ctx, domain.Message{ChatID: "42", Text: "/start"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Text, reply.Choices())
*/
package rollcall
