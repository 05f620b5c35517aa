// Package summary implements the command that prints review statistics for
// a directory.
package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/beelab/dancereview/internal/conf"
	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/errors"
)

// Command creates the summary command.
func Command() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary [directory]",
		Short: "Print category and dance type counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := conf.Setting()
			dir := settings.Review.Directory
			if len(args) == 1 {
				dir = args[0]
			}
			return Run(cmd, afero.NewOsFs(), settings, dir, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

// Run loads dir and writes its summary to the command output.
func Run(cmd *cobra.Command, fs afero.Fs, settings *conf.Settings, dir string, asJSON bool) error {
	if dir == "" {
		return errors.ValidationError("no review directory given")
	}

	ds, err := dataset.Load(cmd.Context(), fs, dir, settings.Dataset.Layout())
	if err != nil {
		return err
	}

	s := dataset.Summarize(ds)
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	return Print(cmd.OutOrStdout(), s)
}

// Print writes s as an aligned table.
func Print(w io.Writer, s *dataset.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Directory\t%s\n", s.Root)
	fmt.Fprintf(tw, "Records\t%d\n", s.Total)
	for _, c := range dataset.Categories() {
		fmt.Fprintf(tw, "  %s\t%d\n", c.Label(), s.ByCategory[c.Label()])
	}
	fmt.Fprintf(tw, "Category corrections\t%d\n", s.CategoryCorrections)
	for _, d := range dataset.DanceTypes() {
		fmt.Fprintf(tw, "  %s\t%d\n", d, s.ByDanceType[string(d)])
	}
	fmt.Fprintf(tw, "Dance type corrections\t%d\n", s.DanceTypeCorrections)
	fmt.Fprintf(tw, "Videos indexed\t%d\n", s.VideosIndexed)
	fmt.Fprintf(tw, "Missing videos\t%d\n", s.MissingVideos)
	return tw.Flush()
}
