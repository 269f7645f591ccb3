package cmd

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the conversation log",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the conversation log. Memories are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := root.newAurora()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Engine().ClearHistory(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Conversation cleared.")
			return nil
		},
	})

	return cmd
}
