package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"murmur/internal/preflight"
	"murmur/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, services and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			st := newStyles(out)

			failures := 0
			depRows := [][]string{}
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				detail := status.Command
				if status.Version != "" {
					detail = fmt.Sprintf("%s (%s)", status.Command, status.Version)
				}
				if !status.Available {
					detail = status.Detail
					if !status.Optional {
						failures++
					}
				}
				depRows = append(depRows, []string{status.Name, st.status(status.Available, status.Optional), detail, st.dim(status.Description)})
			}
			fmt.Fprintln(out, st.heading(fmt.Sprintf("Dependencies (backend %s)", cfg.Inference.Backend)))
			fmt.Fprintln(out, renderTable([]string{"Dependency", "Status", "Detail", "Purpose"}, depRows, nil))

			checkRows := [][]string{}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				if !result.Passed {
					failures++
				}
				checkRows = append(checkRows, []string{result.Name, st.status(result.Passed, false), result.Detail})
			}
			fmt.Fprintln(out, st.heading("Checks"))
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			if failures > 0 {
				return services.Wrap(services.ErrExternalTool, "", "doctor", fmt.Sprintf("%d required check(s) failed", failures), nil)
			}
			fmt.Fprintln(out, st.ok("All required checks passed"))
			return nil
		},
	}
}
