package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/filestore"
)

func newReportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse archived reports",
	}
	cmd.AddCommand(newReportsListCmd(a), newReportsGetCmd(a))
	return cmd
}

func newReportsListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list [yyyy[/mm[/dd]]]",
		Short: "List archived reports, optionally under a date prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, closeStore, err := a.archiver(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			objects, err := arch.List(cmd.Context(), prefix, limit)
			if err != nil {
				return err
			}
			if objects == nil {
				objects = []filestore.ObjectInfo{}
			}
			return emit(cmd.OutOrStdout(), a.format, objects, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, o := range objects {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of reports")
	return cmd
}

func newReportsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, closeStore, err := a.archiver(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			obj, err := arch.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer obj.Close()

			_, err = io.Copy(cmd.OutOrStdout(), obj)
			return err
		},
	}
}
