package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/jmehdipour/contact-site/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer("shop@example.com", []string{"owner@example.com"}, time.UTC)
	require.NoError(t, err)
	return c
}

func TestCompose(t *testing.T) {
	c := newTestComposer(t)
	msg, err := c.Compose(model.Submission{
		Name:    "Jo",
		Email:   "jo@x.com",
		Phone:   "+1 (555) 123-4567",
		Service: "leak repair",
		Message: "my pipe is leaking badly",
	}, submittedAt)
	require.NoError(t, err)

	assert.Equal(t, "shop@example.com", msg.From)
	assert.Equal(t, []string{"owner@example.com"}, msg.To)
	assert.Equal(t, "jo@x.com", msg.ReplyTo)
	assert.Equal(t, "🔧 New Repair Service Inquiry from Jo", msg.Subject)

	for _, want := range []string{"Jo", "jo@x.com", "+1 (555) 123-4567", "leak repair", "my pipe is leaking badly", "Mar 9, 2024 2:30:00 PM UTC"} {
		assert.Contains(t, msg.HTML, want)
		assert.Contains(t, msg.Text, want)
	}
	assert.Contains(t, msg.HTML, `href="tel:`)
	assert.Contains(t, msg.HTML, "15551234567")
}

func TestCompose_MissingPhone(t *testing.T) {
	c := newTestComposer(t)
	msg, err := c.Compose(model.Submission{Name: "Jo", Email: "jo@x.com", Service: "x", Message: "y"}, submittedAt)
	require.NoError(t, err)

	assert.Contains(t, msg.Text, "Phone: Not provided")
	assert.Contains(t, msg.HTML, "Not provided")
	assert.NotContains(t, msg.HTML, "tel:")
}

func TestCompose_EscapesHTML(t *testing.T) {
	c := newTestComposer(t)
	msg, err := c.Compose(model.Submission{
		Name:    `<b>Mallory</b>`,
		Email:   "m@x.com",
		Service: `<img src=x onerror=alert(1)>`,
		Message: `<script>alert("pwned")</script>`,
	}, submittedAt)
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.NotContains(t, msg.HTML, "<img")
	assert.NotContains(t, msg.HTML, "<b>Mallory")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")

	// plain text keeps what the visitor typed
	assert.Contains(t, msg.Text, `<script>alert("pwned")</script>`)
}

func TestSubject_StripsLineBreaks(t *testing.T) {
	s := Subject("Jo\r\nBcc: victim@example.com")
	assert.False(t, strings.ContainsAny(s, "\r\n"))
	assert.True(t, strings.HasPrefix(s, "🔧 New Repair Service Inquiry from Jo"))
}
