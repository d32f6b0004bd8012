package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/student-registry/internal/dto"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	*RootOptions
	Repair bool
}

// ReconcileResult reports duplicate pairs and the repairs applied.
type ReconcileResult struct {
	Pairs    []dto.DuplicatePairResponse `json:"pairs"`
	Repaired []dto.Confirmation          `json:"repaired,omitempty"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Find records present in both active and archived collections",
		Long: `Find records present in both the active and archived collections.

An interrupted archive or restore can leave the same record in both
collections. With --repair the stale archived copy is removed, which
returns the record to its pre-archive state.

Exits with status 1 when unrepaired pairs remain.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Repair, "repair", false, "remove the archived copy of each duplicate pair")

	return cmd
}

func runReconcile(opts *ReconcileOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	svc, err := openServices(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer svc.Close()

	pairs, err := svc.reconcile.Scan(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to scan for duplicates", err)
	}

	result := ReconcileResult{Pairs: pairs}
	if opts.Repair {
		for _, pair := range pairs {
			confirmation, err := svc.reconcile.Repair(ctx, pair.ArchivedID)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to repair archived record %d", pair.ArchivedID), err)
			}
			result.Repaired = append(result.Repaired, confirmation)
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := out.Success(result, func(w *tabwriter.Writer) {
		if len(pairs) == 0 {
			fmt.Fprintln(w, "No inconsistencies found")
			return
		}
		fmt.Fprintln(w, "STUDENT ID\tNAME\tACTIVE ID\tARCHIVED ID")
		for _, pair := range pairs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", pair.StudentID, pair.Name, pair.ActiveID, pair.ArchivedID)
		}
		if opts.Repair {
			fmt.Fprintf(w, "\nRepaired %d record(s)\n", len(result.Repaired))
		}
	}); err != nil {
		return err
	}

	if len(pairs) > 0 && !opts.Repair {
		return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) need reconciliation", len(pairs)))
	}
	return nil
}
