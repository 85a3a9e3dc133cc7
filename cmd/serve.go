package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/contact-site/internal/config"
	httpSrv "github.com/jmehdipour/contact-site/internal/http"
	"github.com/jmehdipour/contact-site/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath, envPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)
		defer func() { _ = logger.Log.Sync() }()
		log := logger.Named("serve")

		contactSvc, err := newContactService(cfg, logger.Log)
		if err != nil {
			return fmt.Errorf("contact service: %w", err)
		}

		if cfg.Mail.Sender() == "" || cfg.Mail.Recipient == "" {
			log.Warn("mail sender or recipient not configured; submissions will fail to send",
				zap.String("from", cfg.Mail.Sender()), zap.String("to", cfg.Mail.Recipient))
		}

		// relay check runs in the background so a slow relay doesn't delay startup
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Mail.ConnectTimeout+cfg.Mail.GreetingTimeout)
			defer cancel()
			if err := contactSvc.Verify(ctx); err != nil {
				log.Error("email transporter verification failed", zap.Error(err))
				return
			}
			log.Info("email transporter is ready", zap.String("driver", cfg.Mail.Driver))
		}()

		server := httpSrv.NewServer(cfg, contactSvc, logger.Named("http"))

		log.Info("starting contact api",
			zap.String("addr", cfg.HTTP.ListenAddr()),
			zap.String("from", cfg.Mail.Sender()),
			zap.String("to", cfg.Mail.Recipient),
			zap.String("submissions_dir", cfg.Submissions.Dir))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		return runUntilSignal(server, cfg.HTTP.ListenAddr(), sigCh, shutdownTimeout, log)
	},
}

type startStopper interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

// runUntilSignal starts srv and blocks until a signal arrives or Start fails.
// The server is always drained; a Start failure is returned after the drain.
func runUntilSignal(srv startStopper, addr string, sigCh <-chan os.Signal, drain time.Duration, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(addr) }()

	var startErr error
	select {
	case sig := <-sigCh:
		log.Info("signal received, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server exited", zap.Error(err))
			startErr = err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	if startErr != nil {
		return fmt.Errorf("http server: %w", startErr)
	}
	return nil
}
