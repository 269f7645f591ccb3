package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/habiliai/aurora"
	"github.com/habiliai/aurora/engine"
	"github.com/spf13/cobra"
)

const (
	clearCommand = "/clear"
	quitCommand  = "/quit"
)

func newChatCmd(root *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk with Aurora in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			var name string
			a, _, err := root.newAurora(aurora.WithRenderer(engine.RendererFunc(func(_ context.Context, answer string, mood engine.Mood) {
				fmt.Fprintf(out, "%s (%s): %s\n", name, mood, answer)
			})))
			if err != nil {
				return err
			}
			defer a.Close()
			name = a.Agent().Name

			fmt.Fprintf(out, "Talking with %s. %s clears the conversation, %s exits.\n", name, clearCommand, quitCommand)
			return chatLoop(ctx, a, cmd.InOrStdin(), out)
		},
	}
}

// chatLoop reads the next line only after the previous turn has returned.
func chatLoop(ctx context.Context, a *aurora.Aurora, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case quitCommand:
			return nil
		case clearCommand:
			if err := a.Engine().ClearHistory(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		// Ctrl-C only ends the loop between turns
		if _, err := a.Run(context.WithoutCancel(ctx), line); err != nil {
			return err
		}
	}
}
