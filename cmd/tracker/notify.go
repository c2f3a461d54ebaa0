package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Spok95/material-tracker/internal/config"
	"github.com/Spok95/material-tracker/internal/infra/logger"
	"github.com/Spok95/material-tracker/internal/notify"
)

func newNotifyCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Send the near-expiry digest to the Telegram admin chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Telegram.AdminChatID == 0 {
				return errors.New("telegram.admin_chat_id is not set")
			}
			log := logger.New(cfg.App.Env)
			ctx := cmd.Context()

			api, err := notify.NewBot(cfg.Telegram.Token)
			if err != nil {
				return err
			}

			st, err := openStore(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			defer st.close()

			items, err := st.svc.ListNearExpiry(ctx)
			if err != nil {
				return err
			}
			if err := notify.New(api, cfg.Telegram.AdminChatID).SendNearExpiry(items, st.svc.Today()); err != nil {
				log.Error("notify failed", "err", err)
				return err
			}
			log.Info("near expiry digest sent", "chat_id", cfg.Telegram.AdminChatID, "count", len(items))
			return nil
		},
	}
}
