package listener

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jhillyerd/enmime"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilematch/internal"
	"profilematch/internal/config"
	"profilematch/internal/connectors"
	"profilematch/internal/storage"
)

type staticConnector struct {
	messages []internal.FetchedMailMessage
}

func (c *staticConnector) FetchInbox(context.Context, string, int) ([]internal.FetchedMailMessage, error) {
	return c.messages, nil
}

func newTestService(t *testing.T, cfg config.Config) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, cfg, zerolog.Nop()), db
}

func TestRunCycleReloadsOnChange(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.Config{
		ProfilesDir:        filepath.Join(tmp, "profiles"),
		OutputDir:          filepath.Join(tmp, "out"),
		ParseWorkers:       1,
		ListenerAutoExport: true,
	}
	svc, db := newTestService(t, cfg)

	res, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Reloaded)
	assert.Equal(t, 0, res.Loaded)

	res, err = svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Reloaded)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.ProfilesDir, "Jane Doe - Consultant Profile.txt"), []byte("Jane Doe Sr. Consultant"), 0o644))
	res, err = svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Reloaded)
	assert.Equal(t, 1, res.Loaded)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "listener", "profiles.xlsx"))

	entries, err := db.ListCorpusEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Jane Doe", entries[0].Name)
}

func TestRunCycleWithMail(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.Config{
		ProfilesDir:         filepath.Join(tmp, "profiles"),
		RawMailDir:          filepath.Join(tmp, "raw"),
		ParseWorkers:        1,
		ListenerMailEnabled: true,
		ListenerProvider:    "IMAP",
		ListenerLabel:       "INBOX",
		ListenerFetchMax:    5,
	}
	svc, db := newTestService(t, cfg)

	part, err := enmime.Builder().
		From("HR", "hr@example.com").
		To("Staffing", "staffing@example.com").
		Subject("Consultant profile").
		Text([]byte("attached")).
		AddAttachment([]byte("Ian McKay Data Engineer"), "text/plain", "Ian McKay - Consultant Profile.txt").
		Build()
	require.NoError(t, err)
	var raw bytes.Buffer
	require.NoError(t, part.Encode(&raw))

	var gotProvider string
	svc.newConnector = func(_ context.Context, _ config.Config, provider string) (connectors.MailConnector, error) {
		gotProvider = provider
		return &staticConnector{messages: []internal.FetchedMailMessage{
			{Provider: "imap", MessageID: "<p1@example.com>", Subject: "Consultant profile", Raw: raw.Bytes()},
		}}, nil
	}

	res, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "imap", gotProvider)
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 1, res.Attachments)
	assert.True(t, res.Reloaded)
	assert.Equal(t, 1, res.Loaded)

	entries, err := db.ListCorpusEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ian McKay", entries[0].Name)
}

func TestRunStopsOnCancel(t *testing.T) {
	svc, _ := newTestService(t, config.Config{ProfilesDir: t.TempDir(), ListenerIntervalSec: 3600})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, svc.Run(ctx))
}

func TestDirectoryFingerprint(t *testing.T) {
	dir := t.TempDir()
	a, err := directoryFingerprint(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	b, err := directoryFingerprint(dir)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	c, err := directoryFingerprint(dir)
	require.NoError(t, err)
	assert.Equal(t, b, c)
}

func TestRelevantEvent(t *testing.T) {
	cases := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{name: "create", ev: fsnotify.Event{Name: "/p/deck.pptx", Op: fsnotify.Create}, want: true},
		{name: "write", ev: fsnotify.Event{Name: "/p/deck.pptx", Op: fsnotify.Write}, want: true},
		{name: "remove", ev: fsnotify.Event{Name: "/p/deck.pptx", Op: fsnotify.Remove}, want: true},
		{name: "rename", ev: fsnotify.Event{Name: "/p/deck.pptx", Op: fsnotify.Rename}, want: true},
		{name: "chmod", ev: fsnotify.Event{Name: "/p/deck.pptx", Op: fsnotify.Chmod}, want: false},
		{name: "hidden", ev: fsnotify.Event{Name: "/p/.~lock.deck.pptx#", Op: fsnotify.Create}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, relevantEvent(tc.ev))
		})
	}
}

func TestWatchSignalsOnNewFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	svc, _ := newTestService(t, config.Config{ProfilesDir: dir})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := svc.watch(ctx)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deck.txt"), []byte("Jane Doe"), 0o644))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signalled")
	}
}
