package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/contact-site/internal/util"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("mail: no recipient configured")

// SendResult carries what the relay told us about an accepted message.
type SendResult struct {
	MessageID string
}

// Transport delivers composed messages. Implementations make one attempt per call.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) (SendResult, error)
	// Verify checks the relay is reachable and accepts our credentials.
	Verify(ctx context.Context) error
}

// SMTPOptions configures SMTPTransport.
type SMTPOptions struct {
	Host      string
	Port      int
	SSL       bool   // implicit TLS
	TLSPolicy string // mandatory | opportunistic | none (STARTTLS)
	Username  string
	Password  string

	ConnectTimeout  time.Duration // default 10s
	GreetingTimeout time.Duration // default 5s
	SocketTimeout   time.Duration // default 10s
}

// SMTPTransport sends through an SMTP relay with go-mail. A fresh client is
// dialed per message; nothing is shared between requests.
type SMTPTransport struct {
	opts SMTPOptions
}

func NewSMTPTransport(opts SMTPOptions) (*SMTPTransport, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, fmt.Errorf("mail: empty SMTP host")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.GreetingTimeout <= 0 {
		opts.GreetingTimeout = 5 * time.Second
	}
	if opts.SocketTimeout <= 0 {
		opts.SocketTimeout = 10 * time.Second
	}
	if _, err := parseTLSPolicy(opts.TLSPolicy); err != nil {
		return nil, err
	}
	return &SMTPTransport{opts: opts}, nil
}

func (t *SMTPTransport) Name() string { return "smtp" }

func parseTLSPolicy(s string) (mail.TLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mandatory":
		return mail.TLSMandatory, nil
	case "opportunistic":
		return mail.TLSOpportunistic, nil
	case "none":
		return mail.NoTLS, nil
	default:
		return mail.NoTLS, fmt.Errorf("mail: unknown tls policy %q", s)
	}
}

func (t *SMTPTransport) clientOptions() []mail.Option {
	policy, _ := parseTLSPolicy(t.opts.TLSPolicy)

	opts := []mail.Option{
		mail.WithTimeout(t.opts.SocketTimeout),
		mail.WithTLSPolicy(policy),
	}
	if t.opts.Port > 0 {
		opts = append(opts, mail.WithPort(t.opts.Port))
	}
	if t.opts.SSL {
		opts = append(opts, mail.WithSSL())
	}
	if t.opts.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.opts.Username),
			mail.WithPassword(t.opts.Password),
		)
	}
	return opts
}

// dial connects, reads the greeting and authenticates within the
// connect+greeting budget.
func (t *SMTPTransport) dial(ctx context.Context) (*mail.Client, error) {
	c, err := mail.NewClient(t.opts.Host, t.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, t.opts.ConnectTimeout+t.opts.GreetingTimeout)
	defer cancel()
	if err := c.DialWithContext(dialCtx); err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", t.opts.Host, err)
	}
	return c, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) (SendResult, error) {
	if len(msg.To) == 0 {
		return SendResult{}, ErrNoRecipient
	}

	m, err := buildMsg(msg)
	if err != nil {
		return SendResult{}, err
	}

	c, err := t.dial(ctx)
	if err != nil {
		return SendResult{}, err
	}
	defer func() { _ = c.Close() }()

	if err := c.Send(m); err != nil {
		return SendResult{}, fmt.Errorf("smtp send: %w", err)
	}

	return SendResult{MessageID: m.GetMessageID()}, nil
}

func (t *SMTPTransport) Verify(ctx context.Context) error {
	c, err := t.dial(ctx)
	if err != nil {
		return err
	}
	return c.Close()
}

func buildMsg(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("mail from %q: %w", msg.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mail to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("mail reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

// LogTransport only writes the message to the process log. For local development.
type LogTransport struct {
	log *zap.Logger
}

func NewLogTransport(log *zap.Logger) *LogTransport {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogTransport{log: log}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	if len(msg.To) == 0 {
		return SendResult{}, ErrNoRecipient
	}
	id := "<" + util.NewID(time.Now()) + "@localhost>"
	t.log.Info("sending email (log transport)",
		zap.Strings("to", msg.To),
		zap.String("from", msg.From),
		zap.String("reply_to", msg.ReplyTo),
		zap.String("subject", msg.Subject),
		zap.String("message_id", id),
		zap.Int("html_bytes", len(msg.HTML)),
		zap.Int("text_bytes", len(msg.Text)),
	)
	return SendResult{MessageID: id}, nil
}

func (t *LogTransport) Verify(context.Context) error { return nil }
