package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ayusman/puppet/internal/store"
	"github.com/spf13/cobra"
)

// NewSessionsCommand creates the sessions command group.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect recorded retargeting sessions",
	}
	cmd.AddCommand(newSessionsListCommand(rootOpts))
	cmd.AddCommand(newSessionsShowCommand(rootOpts))
	cmd.AddCommand(newSessionsDeleteCommand(rootOpts))
	return cmd
}

func newSessionsListCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			sessions, err := st.Sessions().List(limit)
			if err != nil {
				return err
			}
			if sessions == nil {
				sessions = []*store.Session{}
			}
			return writeOutput(cmd.OutOrStdout(), opts.Format, sessions, func(tw *tabwriter.Writer) {
				row(tw, "ID", "SOURCE", "STARTED", "FRAMES", "ENDED")
				for _, s := range sessions {
					ended := "running"
					if s.EndedAt != nil {
						ended = formatTime(*s.EndedAt)
					}
					row(tw, s.ID, s.Source, formatTime(s.StartedAt), s.Frames, ended)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list (0 for all)")
	return cmd
}

type sessionDetail struct {
	*store.Session
	Calibrations []store.Calibration `json:"calibrations"`
}

func newSessionsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session and its reach calibrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			sess, err := st.Sessions().GetByID(args[0])
			if err != nil {
				return fmt.Errorf("session %s: %w", args[0], err)
			}
			cals, err := st.Calibrations().ListBySession(sess.ID)
			if err != nil {
				return err
			}
			if cals == nil {
				cals = []store.Calibration{}
			}

			d := sessionDetail{Session: sess, Calibrations: cals}
			return writeOutput(cmd.OutOrStdout(), opts.Format, d, func(tw *tabwriter.Writer) {
				row(tw, "ID:", sess.ID)
				row(tw, "Source:", sess.Source)
				row(tw, "Started:", formatTime(sess.StartedAt))
				row(tw, "Frames:", sess.Frames)
				for _, c := range cals {
					r := c.Snapshot.Ratio
					row(tw, c.Side+" ratio:", fmt.Sprintf("%.3f %.3f %.3f", r[0], r[1], r[2]))
				}
			})
		},
	}
}

func newSessionsDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its calibrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Sessions().Delete(args[0]); err != nil {
				return fmt.Errorf("session %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted session %s\n", args[0])
			return nil
		},
	}
}
