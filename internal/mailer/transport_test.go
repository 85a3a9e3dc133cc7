package mailer

import (
	"context"
	"mime"
	"net"
	netmail "net/mail"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMessage() Message {
	return Message{
		From:    "shop@example.com",
		To:      []string{"owner@example.com"},
		ReplyTo: "jo@x.com",
		Subject: Subject("Jo"),
		HTML:    "<p>hi</p>",
		Text:    "hi",
	}
}

func TestNewSMTPTransport(t *testing.T) {
	_, err := NewSMTPTransport(SMTPOptions{})
	assert.Error(t, err)

	_, err = NewSMTPTransport(SMTPOptions{Host: "smtp.example.com", TLSPolicy: "sometimes"})
	assert.Error(t, err)

	tr, err := NewSMTPTransport(SMTPOptions{Host: "smtp.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "smtp", tr.Name())
	assert.Equal(t, 10*time.Second, tr.opts.ConnectTimeout)
	assert.Equal(t, 5*time.Second, tr.opts.GreetingTimeout)
	assert.Equal(t, 10*time.Second, tr.opts.SocketTimeout)
}

func TestParseTLSPolicy(t *testing.T) {
	for _, in := range []string{"", "mandatory", "Opportunistic", "none"} {
		_, err := parseTLSPolicy(in)
		assert.NoError(t, err, in)
	}
	_, err := parseTLSPolicy("always")
	assert.Error(t, err)
}

func TestSMTPTransport_SendNoRecipient(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPOptions{Host: "127.0.0.1", Port: 1})
	require.NoError(t, err)

	msg := testMessage()
	msg.To = nil
	_, err = tr.Send(context.Background(), msg)
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSMTPTransport_SendUnreachableRelay(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPOptions{
		Host:           "127.0.0.1",
		Port:           1,
		TLSPolicy:      "none",
		ConnectTimeout: 500 * time.Millisecond,
		SocketTimeout:  500 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp dial")

	assert.Error(t, tr.Verify(context.Background()))
}

func TestBuildMsg_InvalidFrom(t *testing.T) {
	msg := testMessage()
	msg.From = ""
	_, err := buildMsg(msg)
	assert.Error(t, err)
}

func TestBuildMsg_SetsMessageID(t *testing.T) {
	m, err := buildMsg(testMessage())
	require.NoError(t, err)
	assert.NotEmpty(t, m.GetMessageID())
}

func TestLogTransport(t *testing.T) {
	tr := NewLogTransport(zap.NewNop())
	assert.Equal(t, "log", tr.Name())
	assert.NoError(t, tr.Verify(context.Background()))

	res, err := tr.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Contains(t, res.MessageID, "@localhost>")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Send(ctx, testMessage())
	assert.ErrorIs(t, err, context.Canceled)
}

// smtpSession is what the local relay saw during one connection.
type smtpSession struct {
	commands []string
	data     string
}

// startRelay runs a minimal plaintext SMTP server on 127.0.0.1 that accepts
// everything and reports each finished session.
func startRelay(t *testing.T) (int, <-chan smtpSession) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	sessions := make(chan smtpSession, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			sessions <- serveSMTP(conn)
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, sessions
}

func serveSMTP(conn net.Conn) smtpSession {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	var s smtpSession
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP ready")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return s
		}
		s.commands = append(s.commands, line)

		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 8BITMIME")
		case "DATA":
			_ = tp.PrintfLine("354 end data with <CR><LF>.<CR><LF>")
			b, err := tp.ReadDotBytes()
			if err != nil {
				return s
			}
			s.data = string(b)
			_ = tp.PrintfLine("250 2.0.0 queued")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return s
		default:
			_ = tp.PrintfLine("250 OK")
		}
	}
}

func relayTransport(t *testing.T, port int) *SMTPTransport {
	t.Helper()
	tr, err := NewSMTPTransport(SMTPOptions{
		Host:           "127.0.0.1",
		Port:           port,
		TLSPolicy:      "none",
		ConnectTimeout: 2 * time.Second,
		SocketTimeout:  2 * time.Second,
	})
	require.NoError(t, err)
	return tr
}

func receive(t *testing.T, sessions <-chan smtpSession) smtpSession {
	t.Helper()
	select {
	case s := <-sessions:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("relay saw no session")
		return smtpSession{}
	}
}

func TestSMTPTransport_SendDelivers(t *testing.T) {
	port, sessions := startRelay(t)
	tr := relayTransport(t, port)

	msg := testMessage()
	msg.Subject = "New Repair Service Inquiry from Jo"
	msg.HTML = "<p>Name: Jo &lt;b&gt;</p>"
	msg.Text = "Name: Jo <b>"

	res, err := tr.Send(context.Background(), msg)
	require.NoError(t, err)
	require.NotEmpty(t, res.MessageID)

	s := receive(t, sessions)
	joined := strings.ToUpper(strings.Join(s.commands, "\n"))
	assert.Contains(t, joined, "MAIL FROM:<SHOP@EXAMPLE.COM>")
	assert.Contains(t, joined, "RCPT TO:<OWNER@EXAMPLE.COM>")

	parsed, err := netmail.ReadMessage(strings.NewReader(s.data))
	require.NoError(t, err)

	assert.Equal(t, msg.Subject, parsed.Header.Get("Subject"))
	assert.Equal(t, strings.Trim(res.MessageID, "<>"), strings.Trim(parsed.Header.Get("Message-Id"), "<>"))

	replyTo, err := parsed.Header.AddressList("Reply-To")
	require.NoError(t, err)
	require.Len(t, replyTo, 1)
	assert.Equal(t, "jo@x.com", replyTo[0].Address)

	to, err := parsed.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "owner@example.com", to[0].Address)

	assert.Contains(t, parsed.Header.Get("Content-Type"), "multipart/alternative")
	assert.Contains(t, s.data, "text/plain")
	assert.Contains(t, s.data, "text/html")
	assert.Contains(t, s.data, "&lt;b&gt;")
}

func TestSMTPTransport_SendEncodesUnicodeSubject(t *testing.T) {
	port, sessions := startRelay(t)
	tr := relayTransport(t, port)

	_, err := tr.Send(context.Background(), testMessage())
	require.NoError(t, err)

	s := receive(t, sessions)
	parsed, err := netmail.ReadMessage(strings.NewReader(s.data))
	require.NoError(t, err)

	raw := parsed.Header.Get("Subject")
	assert.True(t, strings.HasPrefix(strings.ToUpper(raw), "=?UTF-8?"), raw)

	decoded, err := new(mime.WordDecoder).DecodeHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, Subject("Jo"), decoded)
}

func TestSMTPTransport_VerifyAgainstRelay(t *testing.T) {
	port, sessions := startRelay(t)
	tr := relayTransport(t, port)

	require.NoError(t, tr.Verify(context.Background()))

	s := receive(t, sessions)
	require.NotEmpty(t, s.commands)
	assert.Equal(t, "EHLO", strings.ToUpper(strings.SplitN(s.commands[0], " ", 2)[0]))
	assert.Empty(t, s.data)
}
