/*
Package runner implements the console loop and I/O orchestration for rollcall.

It acts as the bridge between the engine and a terminal or pipe. Each line read
becomes one domain.Message for a fixed chat; each reply is written back through
a pluggable handler.

# Key Components

  - Runner: reads input until EOF or interruption and feeds it to the engine.
  - IOHandler: decouples how replies are shown and input is read.
  - TextHandler: interactive console with Markdown rendering and choice chips.
  - JSONHandler: JSON-Lines for scripting.
  - SanitizeInput: size and control-character checks shared by every transport.

# Usage

	r := runner.NewRunner(
		runner.WithChatID("console"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
