/*
Package runner implements the terminal chat loop for the onboarding engine.

It acts as the bridge between the Engine and a person at a terminal: it renders new
turns, numbers the offered choices, reads replies and maps them onto choice tokens,
free text, stage jumps or file uploads. Side effects are awaited after every reply so
their outcome is shown before the next prompt.

# Key Components

  - Runner: The loop that starts or resumes a session and converses until it closes.
  - IOHandler: Decouples how turns are shown and replies are read.
  - TextHandler: A standard implementation for interactive CLI usage.
  - SanitizeInput: The input policy shared with the HTTP and MCP adapters.

# Usage

	eng := onboard.New(onboard.WithGateway(gw))
	defer eng.Close()

	r := runner.NewRunner(runner.WithRenderer(tui.NewRenderer()))
	if err := r.Run(ctx, eng, "user-1", sc); err != nil {
		log.Fatal(err)
	}
*/
package runner
