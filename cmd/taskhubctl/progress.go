package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func progressCmd(opts *connOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <taskID>",
		Short: "Show completion of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := httpjson.ObjectID("taskID", args[0])
			if err != nil {
				return err
			}
			ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Long(), nil, "progress")
			defer cancel()

			s, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			p, err := s.engine.GetProgress(ctx, taskID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d completed (%d%%)\n", p.Completed, p.Total, p.Percentage)
			return nil
		},
	}
}

func participantsCmd(opts *connOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "participants <taskID>",
		Short: "List the participation rows of a group task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := httpjson.ObjectID("taskID", args[0])
			if err != nil {
				return err
			}
			ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Long(), nil, "participants")
			defer cancel()

			s, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			ps, err := s.engine.ListParticipants(ctx, taskID)
			if err != nil {
				return err
			}
			users, err := s.conn.Backend().Repos().Users.ListByIDs(ctx, userIDs(ps))
			if err != nil {
				return err
			}
			names := make(map[string]string, len(users))
			for _, u := range users {
				names[u.ID.Hex()] = u.FullName
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USER\tNAME\tCOMPLETED\tAT")
			for _, p := range ps {
				at := "-"
				if p.CompletedAt != nil {
					at = p.CompletedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", p.UserID.Hex(), names[p.UserID.Hex()], p.IsCompleted, at)
			}
			return tw.Flush()
		},
	}
}

func userIDs(ps []models.Participation) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.UserID)
	}
	return ids
}
