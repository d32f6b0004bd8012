package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/student-registry/internal/dto"
)

// ListOptions holds flags shared by the list and archived commands.
type ListOptions struct {
	*RootOptions
	Search   string
	Page     int
	PageSize int
}

func addListFlags(cmd *cobra.Command, opts *ListOptions) {
	cmd.Flags().StringVar(&opts.Search, "search", "", "filter by name, student id or course")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 50, "records per page")
}

func (o *ListOptions) request() dto.ListRequest {
	return dto.ListRequest{Page: o.Page, PageSize: o.PageSize, Search: o.Search}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active student records, newest registration first",
		Example: `  registryctl list
  registryctl list --search ann --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(opts.RootOptions, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer svc.Close()

			response, err := svc.lifecycle.ListActive(context.Background(), opts.request())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list students", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(response, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tSTUDENT ID\tNAME\tCOURSE\tREGISTERED\tNEW")
				for _, item := range response.Items {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s %s\t%t\n",
						item.ID, item.StudentID, item.Name, item.Course, item.RegisteredDate, item.RegisteredTime, item.IsNew)
				}
				fmt.Fprintf(w, "\n%d of %d record(s)\n", len(response.Items), response.Pagination.TotalItems)
			})
		},
	}

	addListFlags(cmd, opts)
	return cmd
}

// NewArchivedCommand creates the archived command.
func NewArchivedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "archived",
		Short:         "List archived student records, most recently archived first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(opts.RootOptions, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer svc.Close()

			response, err := svc.lifecycle.ListArchived(context.Background(), opts.request())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list archived students", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(response, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tSTUDENT ID\tNAME\tORIGINAL ID\tARCHIVED")
				for _, item := range response.Items {
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s %s\n",
						item.ID, item.StudentID, item.Name, item.OriginalID, item.ArchivedDate, item.ArchivedTime)
				}
				fmt.Fprintf(w, "\n%d of %d record(s)\n", len(response.Items), response.Pagination.TotalItems)
			})
		},
	}

	addListFlags(cmd, opts)
	return cmd
}
