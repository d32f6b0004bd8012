package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/student-registry/internal/service"
)

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge <archived-id>",
		Short: "Permanently delete an archived record",
		Long: `Permanently delete an archived record.

Purging is irreversible. Only archived records can be purged;
archive an active record first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid archived id %q", args[0]))
			}

			svc, err := openServices(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer svc.Close()

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			confirmation, err := svc.lifecycle.Purge(context.Background(), uint(id))
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					_ = out.Error("not_found", fmt.Sprintf("archived record %d not found", id), nil)
					return NewExitError(ExitFailure, "archived record not found")
				}
				return WrapExitError(ExitCommandError, "failed to purge record", err)
			}

			return out.Success(confirmation, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "Purged archived record %d (%s)\n", id, confirmation.StudentID)
			})
		},
	}

	return cmd
}
