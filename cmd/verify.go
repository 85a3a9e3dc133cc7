package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/contact-site/internal/config"
	"github.com/jmehdipour/contact-site/internal/logger"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Dial and authenticate against the mail relay, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath, envPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)

		transport, err := newTransport(cfg.Mail, logger.Named("mailer"))
		if err != nil {
			return fmt.Errorf("mail transport: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Mail.ConnectTimeout+cfg.Mail.GreetingTimeout)
		defer cancel()
		if err := transport.Verify(ctx); err != nil {
			return fmt.Errorf("verify %s relay %s:%d: %w", transport.Name(), cfg.Mail.Host, cfg.Mail.Port, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "mail relay ok (%s)\n", transport.Name())
		return nil
	},
}
