// Package reconcile implements the command that checks the video folders of
// a review directory against its record table.
package reconcile

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/beelab/dancereview/internal/conf"
	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/review"
)

// Options are the reconcile command flags.
type Options struct {
	Repair bool
	Strict bool
}

// Command creates the reconcile command.
func Command() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "reconcile [directory]",
		Short: "Check video locations against the record table",
		Long: "Report records without a video, videos stored in the wrong category folder, " +
			"and videos without a record. With --repair, misplaced videos are moved.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := conf.Setting()
			dir := settings.Review.Directory
			if len(args) == 1 {
				dir = args[0]
			}
			return Run(cmd, afero.NewOsFs(), settings, dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Repair, "repair", false, "Move misplaced videos into their category folder")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit with an error when problems remain")
	return cmd
}

// Run reconciles dir and prints the report, repairing misplaced videos when
// asked to.
func Run(cmd *cobra.Command, fs afero.Fs, settings *conf.Settings, dir string, opts Options) error {
	if dir == "" {
		return errors.ValidationError("no review directory given")
	}

	ds, err := dataset.Load(cmd.Context(), fs, dir, settings.Dataset.Layout())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report := dataset.Reconcile(ds)
	printReport(out, report)

	if opts.Repair && len(report.Misplaced) > 0 {
		result, err := dataset.Repair(cmd.Context(), ds, report, review.NewFileRelocator(fs))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Repaired %d misplaced videos\n", len(result.Moved))
		for _, id := range slices.Sorted(maps.Keys(result.Failed)) {
			fmt.Fprintf(out, "  failed %s: %s\n", id, result.Failed[id])
		}
		report = dataset.Reconcile(ds)
	}

	if opts.Strict && !report.Clean() {
		return errors.Newf("%d records without video, %d misplaced, %d orphans, %d duplicates",
			len(report.Missing), len(report.Misplaced), len(report.Orphans), len(report.Duplicates)).
			Component("reconcile").
			Category(errors.CategoryState).
			Context("root", dir).
			Build()
	}
	return nil
}

func printReport(w io.Writer, r *dataset.ReconcileReport) {
	if r.Clean() {
		fmt.Fprintln(w, "No problems found")
		return
	}
	printList(w, "Records without video", r.Missing)
	fmt.Fprintf(w, "Misplaced videos: %d\n", len(r.Misplaced))
	for _, m := range r.Misplaced {
		fmt.Fprintf(w, "  %s -> %s\n", m.Path, m.Expected.Label())
	}
	printList(w, "Videos without record", r.Orphans)
	printList(w, "Duplicate videos", r.Duplicates)
}

func printList(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "%s: %d\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
}
