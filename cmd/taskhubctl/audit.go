package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errNoAuditTrail is returned on backends that do not persist audit events.
var errNoAuditTrail = errors.New("audit events are only stored on the mongo backend")

type auditOptions struct {
	task     string
	actor    string
	group    string
	category string
	failure  string
	limit    int64
}

// filter turns the flags into a store query.
func (o auditOptions) filter() (audit.QueryFilter, error) {
	f := audit.QueryFilter{
		Category:    o.category,
		FailureKind: o.failure,
		Limit:       o.limit,
	}
	for _, id := range []struct {
		flag string
		val  string
		dst  **primitive.ObjectID
	}{
		{"task", o.task, &f.TaskID},
		{"actor", o.actor, &f.ActorID},
		{"group", o.group, &f.GroupID},
	} {
		if id.val == "" {
			continue
		}
		oid, err := httpjson.ObjectID(id.flag, id.val)
		if err != nil {
			return audit.QueryFilter{}, err
		}
		*id.dst = &oid
	}
	return f, nil
}

func auditCmd(opts *connOptions) *cobra.Command {
	var ao auditOptions
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recorded task and group events, newest first",
		Long: "Show recorded task and group events, newest first.\n\n" +
			"Denied actions carry their failure kind, so forbidden and invalid_state\n" +
			"refusals can be told apart with --failure.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ao.filter()
			if err != nil {
				return err
			}
			ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Long(), nil, "audit")
			defer cancel()

			s, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			if s.conn.MongoDatabase == nil {
				return errNoAuditTrail
			}
			store := audit.New(s.conn.MongoDatabase)
			events, err := store.Query(ctx, filter)
			if err != nil {
				return err
			}
			total, err := store.CountByFilter(ctx, filter)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tEVENT\tACTOR\tTASK\tGROUP\tOUTCOME")
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"),
					e.EventType, hexOr(e.ActorID), hexOr(e.TaskID), hexOr(e.GroupID), outcome(e))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d events\n", len(events), total)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&ao.task, "task", "", "only events for this task id")
	f.StringVar(&ao.actor, "actor", "", "only events performed by this user id")
	f.StringVar(&ao.group, "group", "", "only events for this group id")
	f.StringVar(&ao.category, "category", "", "task or group")
	f.StringVar(&ao.failure, "failure", "", "only denials of this kind: forbidden, invalid_state, not_found, validation")
	f.Int64Var(&ao.limit, "limit", 50, "maximum events to show")
	return cmd
}

func hexOr(id *primitive.ObjectID) string {
	if id == nil {
		return "-"
	}
	return id.Hex()
}

func outcome(e audit.Event) string {
	if e.Success {
		return "ok"
	}
	return e.FailureKind + ": " + e.FailureReason
}
