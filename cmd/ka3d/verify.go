package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/twinfer/ka3d-dat/pkg/ka3d"
)

func (a *app) verifyCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "verify FILE...",
		Short: "Check that containers re-encode to identical bytes",
		Long: `Decode each container, re-encode its segment in the same dialect and
compare the bytes. Containers carrying unknown or additional segments do
not round trip and are reported as mismatches.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := a.codec()
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range args {
				if err := a.verifyFile(cmd, codec, path, strict); err != nil {
					fmt.Fprintf(a.stdout, "%s: FAIL %v\n", path, err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d containers failed verification", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat round trip mismatches as failures")
	return cmd
}

func (a *app) verifyFile(cmd *cobra.Command, codec *ka3d.Codec, path string, strict bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	asset, err := codec.Verify(cmd.Context(), data)

	var rt *ka3d.RoundTripError
	switch {
	case errors.As(err, &rt) && !strict:
		s := ka3d.Summarize(asset)
		fmt.Fprintf(a.stdout, "%s: DIFF %s %s, first difference at offset %d\n", path, s.Tag, s.Schema, rt.Offset)
		return nil
	case err != nil:
		return err
	}
	s := ka3d.Summarize(asset)
	fmt.Fprintf(a.stdout, "%s: OK %s %s (%s, %d bytes)\n", path, s.Tag, s.Schema, s.Dialect, len(data))
	return nil
}
