package inbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/store"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

func writeInbox(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mock_inbox.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLoader(t *testing.T) (*Loader, *store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewLoader(s, zap.NewNop()), s
}

const sampleInbox = `{
  "emails": [
    {"id": 1, "sender": "alice@x.com", "subject": "Hello", "body": "Hi there", "timestamp": "2026-01-01T09:00:00"},
    {"id": 2, "sender": "bob@x.com", "subject": "Report", "body": "Attached", "timestamp": "2026-01-02T09:00:00"},
    {"id": 3, "sender": "alice@x.com", "subject": "Hello", "body": "Hi there", "timestamp": "2026-01-01T09:00:00"}
  ]
}`

func TestLoader_LoadSkipsDuplicates(t *testing.T) {
	l, s := newTestLoader(t)
	ctx := context.Background()

	loaded, err := l.Load(ctx, writeInbox(t, sampleInbox))
	require.NoError(t, err)
	assert.Equal(t, 2, loaded, "third entry duplicates the first")

	emails, err := s.GetEmails(ctx, core.EmailFilter{})
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, core.CategoryUncategorized, emails[0].Category)
	assert.NotEmpty(t, emails[0].RawJSON)
}

func TestLoader_RefusesNonEmptyInbox(t *testing.T) {
	l, s := newTestLoader(t)
	ctx := context.Background()

	_, err := s.SaveEmail(ctx, &core.Email{
		Sender: "x@x.com", Subject: "existing", Timestamp: "2026-01-01T09:00:00",
	})
	require.NoError(t, err)

	_, err = l.Load(ctx, writeInbox(t, sampleInbox))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already loaded")
}

func TestLoader_EmptyFile(t *testing.T) {
	l, _ := newTestLoader(t)

	_, err := l.Load(context.Background(), writeInbox(t, `{"emails": []}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no emails found")
}

func TestLoader_MissingTimestampGetsFilled(t *testing.T) {
	l, s := newTestLoader(t)
	ctx := context.Background()

	loaded, err := l.Load(ctx, writeInbox(t, `{"emails": [{"sender": "a@x.com", "subject": "No time", "body": "x"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	emails, err := s.GetEmails(ctx, core.EmailFilter{})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.NotEmpty(t, emails[0].Timestamp)
}

func TestLoader_BadFile(t *testing.T) {
	l, _ := newTestLoader(t)

	_, err := l.Load(context.Background(), writeInbox(t, "not json"))
	assert.Error(t, err)

	_, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
