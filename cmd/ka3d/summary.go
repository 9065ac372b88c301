package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/twinfer/ka3d-dat/pkg/ka3d"
	"golang.org/x/sync/errgroup"
)

type summaryRow struct {
	File         string `yaml:"file"`
	ka3d.Summary `yaml:",inline"`
}

func (a *app) summaryCmd() *cobra.Command {
	var (
		where  string
		format string
		jobs   int
	)
	cmd := &cobra.Command{
		Use:   "summary FILE...",
		Short: "Decode containers and summarise their contents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("where") {
				where = a.cfg.Where
			}
			rows, err := a.summarize(cmd.Context(), args, where, jobs)
			if err != nil {
				return err
			}
			return writeReport(a.stdout, format, rows, func(w io.Writer) {
				renderSummaries(w, rows)
			})
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", `CEL filter over the summary fields, e.g. 'schema == "Font" && records > 100'`)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, yaml)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "Number of files decoded in parallel")
	return cmd
}

// summarize decodes files concurrently and returns the matching rows in
// argument order.
func (a *app) summarize(ctx context.Context, paths []string, where string, jobs int) ([]summaryRow, error) {
	codec, err := a.codec()
	if err != nil {
		return nil, err
	}
	// Compile once up front so a bad filter fails before any decoding.
	if where != "" {
		if _, err := a.pool.GetExpression(where); err != nil {
			return nil, err
		}
	}

	results := make([]*summaryRow, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			asset, err := codec.DecodeFile(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			s := ka3d.Summarize(asset)
			ok, err := a.pool.Match(where, s.Fields())
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if ok {
				results[i] = &summaryRow{File: path, Summary: s}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]summaryRow, 0, len(results))
	for _, r := range results {
		if r != nil {
			rows = append(rows, *r)
		}
	}
	return rows, nil
}

func renderSummaries(w io.Writer, rows []summaryRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Tag", "Schema", "Dialect", "Version", "Records", "Detail"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rows {
		table.Append([]string{
			row.File,
			row.Tag,
			row.Schema,
			row.Dialect,
			strconv.Itoa(row.Version),
			strconv.Itoa(row.Records),
			detail(row.Summary),
		})
	}
	table.Render()
}

func detail(s ka3d.Summary) string {
	switch {
	case s.Texture != "":
		return s.Texture
	case s.Languages > 0:
		return fmt.Sprintf("%d languages", s.Languages)
	case s.Children > 0:
		return fmt.Sprintf("%d children", s.Children)
	}
	return ""
}
