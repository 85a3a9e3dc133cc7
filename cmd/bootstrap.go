package cmd

import (
	"fmt"
	"strings"

	"github.com/jmehdipour/contact-site/internal/config"
	"github.com/jmehdipour/contact-site/internal/mailer"
	"github.com/jmehdipour/contact-site/internal/repository"
	"github.com/jmehdipour/contact-site/internal/service/contact"
	"go.uber.org/zap"
)

// newTransport picks the mail transport named by cfg.Driver.
func newTransport(cfg config.MailConfig, log *zap.Logger) (mailer.Transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "smtp":
		return mailer.NewSMTPTransport(mailer.SMTPOptions{
			Host:            cfg.Host,
			Port:            cfg.Port,
			SSL:             cfg.SSL,
			TLSPolicy:       cfg.TLSPolicy,
			Username:        cfg.Username,
			Password:        cfg.Password,
			ConnectTimeout:  cfg.ConnectTimeout,
			GreetingTimeout: cfg.GreetingTimeout,
			SocketTimeout:   cfg.SocketTimeout,
		})
	case "log":
		return mailer.NewLogTransport(log), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// newContactService wires submission log, composer and transport. Each part
// logs under its own name below log.
func newContactService(cfg config.Config, log *zap.Logger) (*contact.Service, error) {
	logs, err := repository.NewFileSubmissionLog(cfg.Submissions.Dir, log.Named("submissions"))
	if err != nil {
		return nil, err
	}

	var to []string
	if r := strings.TrimSpace(cfg.Mail.Recipient); r != "" {
		to = []string{r}
	}
	composer, err := mailer.NewComposer(cfg.Mail.Sender(), to, nil)
	if err != nil {
		return nil, err
	}

	transport, err := newTransport(cfg.Mail, log.Named("mailer"))
	if err != nil {
		return nil, fmt.Errorf("mail transport: %w", err)
	}

	svc := contact.New(logs, composer, transport, log.Named("contact"))
	if cfg.Submissions.MessagePreview > 0 {
		svc.MessagePreview = cfg.Submissions.MessagePreview
	}
	return svc, nil
}
