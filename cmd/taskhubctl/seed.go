package main

import (
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/seed"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
)

func seedCmd(opts *connOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, groups, and tasks from a YAML fixture file",
		Long: "Load users, groups, and tasks from a YAML fixture file.\n\n" +
			"Seeding is safe to rerun. Users are matched by email, groups by name among\n" +
			"the groups their creator created, and tasks by creator, title, and target.\n" +
			"Existing records are left as they are; members missing from an existing\n" +
			"group are added.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.Load(file)
			if err != nil {
				return err
			}

			ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Batch(), nil, "seed")
			defer cancel()

			s, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			res, err := seed.Apply(ctx, s.engine, s.conn.Backend().Repos(), f, s.log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "users:   %d created, %d reused\n", res.UsersCreated, res.UsersReused)
			fmt.Fprintf(out, "groups:  %d created, %d reused (%d members added)\n", res.Groups, res.GroupsReused, res.Members)
			fmt.Fprintf(out, "tasks:   %d created, %d already present\n", res.Tasks, res.TasksExisting)
			for name, id := range res.GroupIDs {
				fmt.Fprintf(out, "  group %-20s %s\n", name, id.Hex())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
