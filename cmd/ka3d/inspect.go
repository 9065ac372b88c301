package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"github.com/twinfer/ka3d-dat/pkg/ka3d"
	"gopkg.in/yaml.v3"
)

type frameRow struct {
	Tag    string `yaml:"tag"`
	Name   string `yaml:"name,omitempty"`
	Offset int64  `yaml:"offset"`
	Size   int32  `yaml:"size"`
	Depth  int    `yaml:"depth"`
	Known  bool   `yaml:"known"`
}

type inspectReport struct {
	File         string     `yaml:"file"`
	Dialect      string     `yaml:"dialect"`
	DeclaredSize int32      `yaml:"declared_size"`
	Segments     []frameRow `yaml:"segments"`
}

func (a *app) inspectCmd() *cobra.Command {
	var (
		depth  int
		where  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "List the segment framing of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("depth") {
				depth = a.cfg.Depth
			}
			if !cmd.Flags().Changed("where") {
				where = a.cfg.Where
			}
			report, err := a.inspect(args[0], depth, where)
			if err != nil {
				return err
			}
			return writeReport(a.stdout, format, report, func(w io.Writer) {
				renderFrames(w, report)
			})
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 1, "Nesting depth to descend into (0 lists top level segments only)")
	cmd.Flags().StringVarP(&where, "where", "w", "", `CEL filter over tag, name, offset, size, depth and known, e.g. 'size > 1024'`)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, yaml)")
	return cmd
}

func (a *app) inspect(path string, depth int, where string) (*inspectReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	opts := []datfile.ReaderOption{
		datfile.WithCheckBounds(a.cfg.CheckBounds),
		datfile.WithReaderLogger(a.logger),
	}
	r, err := datfile.NewReader(f, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	report := &inspectReport{
		File:         path,
		Dialect:      r.Dialect().String(),
		DeclaredSize: r.DeclaredSize(),
	}
	err = ka3d.Scan(r, depth, func(fi ka3d.FrameInfo) error {
		ok, err := a.pool.Match(where, fi.Fields())
		if err != nil || !ok {
			return err
		}
		report.Segments = append(report.Segments, frameRow{
			Tag:    fi.Tag.String(),
			Name:   fi.Name,
			Offset: fi.Offset,
			Size:   fi.Size,
			Depth:  fi.Depth,
			Known:  fi.Known,
		})
		return nil
	})
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

func renderFrames(w io.Writer, report *inspectReport) {
	fmt.Fprintf(w, "%s: %s container, %s payload\n", report.File, report.Dialect, humanize.IBytes(uint64(report.DeclaredSize)))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Offset", "Tag", "Schema", "Size", "Depth"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range report.Segments {
		name := row.Name
		if !row.Known {
			name = "(skipped)"
		}
		indent := ""
		for i := 0; i < row.Depth; i++ {
			indent += "  "
		}
		table.Append([]string{
			strconv.FormatInt(row.Offset, 10),
			indent + row.Tag,
			name,
			humanize.IBytes(uint64(row.Size)),
			strconv.Itoa(row.Depth),
		})
	}
	table.Render()
}

// writeReport prints v as YAML or through the table renderer.
func writeReport(w io.Writer, format string, v any, table func(io.Writer)) error {
	switch format {
	case "", "table":
		table(w)
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want table or yaml)", format)
	}
}
