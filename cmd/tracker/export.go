package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Spok95/material-tracker/internal/config"
	"github.com/Spok95/material-tracker/internal/domain/materials"
	"github.com/Spok95/material-tracker/internal/infra/logger"
	"github.com/Spok95/material-tracker/internal/report"
)

func newExportCmd(cfgPath *string) *cobra.Command {
	var (
		out        string
		nearExpiry bool
		search     string
		status     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write materials to an XLSX file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.App.Env)
			ctx := cmd.Context()

			st, err := openStore(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			defer st.close()

			var items []materials.Material
			if nearExpiry {
				items, err = st.svc.ListNearExpiry(ctx)
			} else {
				items, err = st.svc.List(ctx, materials.Filter{Search: search, Status: materials.ParseStatus(status)})
			}
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.WriteXLSX(f, items, st.svc.Today()); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			log.Info("export written", "path", out, "rows", len(items))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d materials written to %s\n", len(items), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "materials.xlsx", "output file")
	cmd.Flags().BoolVar(&nearExpiry, "near-expiry", false, "only materials expiring within 30 days (including expired)")
	cmd.Flags().StringVar(&search, "search", "", "substring of name or code")
	cmd.Flags().StringVar(&status, "status", "all", "all|expired|active")
	return cmd
}
