package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"clipsync/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, cache backend, and decoder dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			for _, line := range sectionHeader("clipsync doctor", color) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Detail"},
				doctorRows(results, color),
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if preflight.Failed(results) {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}
}

func doctorRows(results []preflight.Result, color bool) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		switch {
		case !r.Passed && r.Optional:
			status = colorize("warn", ansiYellow, color)
		case !r.Passed:
			status = colorize("FAIL", ansiYellow, color)
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return rows
}
