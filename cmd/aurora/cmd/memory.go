package cmd

import (
	"strings"

	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/memory"
	"github.com/spf13/cobra"
)

func newMemoryCmd(root *rootParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and edit what Aurora remembers",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every memory, oldest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, _, err := root.newAurora()
				if err != nil {
					return err
				}
				defer a.Close()

				records, err := a.Memories().ListRecords(cmd.Context())
				if err != nil {
					return err
				}
				for _, r := range records {
					printRecord(cmd, *r)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "critical",
			Short: "List the memories that are always in context",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, _, err := root.newAurora()
				if err != nil {
					return err
				}
				defer a.Close()

				critical, err := a.Memories().GetCriticalMemories(cmd.Context())
				if err != nil {
					return err
				}
				for _, text := range critical {
					cmd.Println("- " + text)
				}
				return nil
			},
		},
		newMemorySearchCmd(root),
		newMemoryAddCmd(root),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Forget a memory",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, _, err := root.newAurora()
				if err != nil {
					return err
				}
				defer a.Close()

				return a.Memories().DeleteRecord(cmd.Context(), args[0])
			},
		},
	)

	return cmd
}

func newMemorySearchCmd(root *rootParams) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories by meaning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := root.newAurora()
			if err != nil {
				return err
			}
			defer a.Close()

			var opts []memory.SearchOption
			if k > 0 {
				opts = append(opts, memory.WithLimit(k))
			}
			records, err := a.Memories().SearchMemory(cmd.Context(), strings.Join(args, " "), opts...)
			if err != nil {
				return err
			}
			for _, r := range records {
				printRecord(cmd, r)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "limit", "k", 0, "Maximum number of results")
	return cmd
}

func newMemoryAddCmd(root *rootParams) *cobra.Command {
	params := &struct {
		Category   string
		Importance string
	}{}
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Remember a fact directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := memory.ParseCategory(params.Category)
			if err != nil {
				return err
			}
			importance, err := memory.ParseImportance(params.Importance)
			if err != nil {
				return err
			}

			a, _, err := root.newAurora()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Memories().AddRecord(cmd.Context(), strings.Join(args, " "), category, importance)
			if err != nil {
				return errors.Wrapf(err, "failed to add memory")
			}
			if res.Duplicate {
				cmd.Printf("already remembered as %s (distance %.3f)\n", res.Existing.Record.ID, res.Existing.Distance)
				return nil
			}
			cmd.Println(res.Record.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Category, "category", string(memory.CategoryPreferences), "Memory category")
	cmd.Flags().StringVar(&params.Importance, "importance", string(memory.ImportanceMedium), "Memory importance")
	return cmd
}

func printRecord(cmd *cobra.Command, r memory.Record) {
	cmd.Printf("%s  %-8s  %-14s  %s  %s\n",
		r.ID, r.Importance, r.Category, r.CreatedAt.Format("2006-01-02"), r.Text)
}
