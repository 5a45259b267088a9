package intake

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/store"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

func newTestServer(t *testing.T, ruleTagging bool) (*Server, *store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewServer(s, zap.NewNop(), "127.0.0.1:0", ruleTagging), s
}

const plainMessage = "From: alice@x.com\r\n" +
	"To: me@local\r\n" +
	"Subject: Quick question\r\n" +
	"Date: Mon, 05 Jan 2026 10:00:00 +0000\r\n" +
	"\r\n" +
	"Do you have the numbers?\r\n"

func TestStoreMessage_PlainText(t *testing.T) {
	srv, s := newTestServer(t, false)

	require.NoError(t, srv.storeMessage("alice@x.com", []byte(plainMessage)))

	emails, err := s.GetEmails(context.Background(), core.EmailFilter{})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "alice@x.com", emails[0].Sender)
	assert.Equal(t, "Quick question", emails[0].Subject)
	assert.Contains(t, emails[0].Body, "Do you have the numbers?")
	assert.Equal(t, "2026-01-05T10:00:00Z", emails[0].Timestamp)
	assert.Equal(t, core.CategoryUncategorized, emails[0].Category)
	assert.False(t, emails[0].IsProcessed)
}

func TestStoreMessage_RuleTagging(t *testing.T) {
	srv, s := newTestServer(t, true)

	msg := "From: noreply@shop.example\r\n" +
		"Subject: Sale\r\n" +
		"\r\n" +
		"Everything discounted.\r\n"
	require.NoError(t, srv.storeMessage("noreply@shop.example", []byte(msg)))

	emails, err := s.GetEmails(context.Background(), core.EmailFilter{})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, core.CategoryNewsletter, emails[0].Category)
}

func TestStoreMessage_Multipart(t *testing.T) {
	srv, s := newTestServer(t, false)

	msg := "From: bob@x.com\r\n" +
		"Subject: Report attached\r\n" +
		"Content-Type: multipart/mixed; boundary=frontier\r\n" +
		"\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"The report is attached.\r\n" +
		"--frontier\r\n" +
		"Content-Type: application/pdf\r\n" +
		"\r\n" +
		"%PDF-1.4 binary junk\r\n" +
		"--frontier--\r\n"
	require.NoError(t, srv.storeMessage("bob@x.com", []byte(msg)))

	emails, err := s.GetEmails(context.Background(), core.EmailFilter{})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Contains(t, emails[0].Body, "The report is attached.")
	assert.NotContains(t, emails[0].Body, "PDF")
}

func TestStoreMessage_Unparseable(t *testing.T) {
	srv, s := newTestServer(t, false)

	require.Error(t, srv.storeMessage("x@x.com", []byte("no headers at all")))

	emails, err := s.GetEmails(context.Background(), core.EmailFilter{})
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func TestSessionLifecycle(t *testing.T) {
	srv, s := newTestServer(t, false)
	session := &smtpSession{intake: srv}

	require.NoError(t, session.Mail("alice@x.com", nil))
	require.NoError(t, session.Rcpt("me@local", nil))
	require.NoError(t, session.Data(strings.NewReader(plainMessage)))
	session.Reset()
	assert.Empty(t, session.sender)
	require.NoError(t, session.Logout())

	emails, err := s.GetEmails(context.Background(), core.EmailFilter{})
	require.NoError(t, err)
	assert.Len(t, emails, 1)
}
