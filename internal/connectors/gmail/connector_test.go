package gmail

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilematch/internal/config"
)

func TestReceivedAt(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		in   string
		want string
	}{
		{in: "Mon, 02 Feb 2026 10:00:00 +0100", want: "2026-02-02T09:00:00Z"},
		{in: "Mon, 2 Feb 2026 10:00:00 -0500 (EST)", want: "2026-02-02T15:00:00Z"},
		{in: "", want: "2026-01-02T03:04:05Z"},
		{in: "yesterday", want: "2026-01-02T03:04:05Z"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, receivedAt(tc.in, now), tc.in)
	}
}

func TestDecodeBase64URL(t *testing.T) {
	raw := []byte("Subject: hi\r\n\r\nbody??>")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding} {
		got, err := decodeBase64URL(enc.EncodeToString(raw))
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
	_, err := decodeBase64URL("***")
	assert.Error(t, err)
}

func TestNewConnectorRequiresCredentials(t *testing.T) {
	_, err := NewConnector(context.Background(), config.Config{GmailClientID: "id"})
	assert.ErrorContains(t, err, "GMAIL_CLIENT_SECRET")
}
