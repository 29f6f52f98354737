package connectors

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/rs/zerolog"

	"profilematch/internal"
	"profilematch/internal/pipeline"
	"profilematch/internal/storage"
	"profilematch/internal/util"
)

// AttachmentService moves profile decks out of stored mail into the profiles
// directory, where the next directory load picks them up.
type AttachmentService struct {
	db          *storage.DB
	profilesDir string
	log         zerolog.Logger
}

type AttachmentResult struct {
	Messages int
	Written  int
	Skipped  int
}

func NewAttachmentService(db *storage.DB, profilesDir string, log zerolog.Logger) *AttachmentService {
	return &AttachmentService{db: db, profilesDir: profilesDir, log: log}
}

// ExtractPending handles up to limit fetched messages. An empty provider
// matches every provider.
func (s *AttachmentService) ExtractPending(limit int, provider string) (AttachmentResult, error) {
	pending, err := s.db.ListMailMessagesByStatus(StatusFetched, limit)
	if err != nil {
		return AttachmentResult{}, err
	}

	var res AttachmentResult
	for _, msg := range pending {
		if provider != "" && msg.Provider != provider {
			continue
		}
		written, err := s.ExtractMessage(msg)
		if err != nil {
			return res, err
		}
		res.Messages++
		if written == 0 {
			res.Skipped++
		}
		res.Written += written
	}
	return res, nil
}

func (s *AttachmentService) ExtractByProviderMessageID(provider, messageID string) (int, error) {
	msg, err := s.db.MustMailMessageByProviderMessageID(provider, messageID)
	if err != nil {
		return 0, err
	}
	return s.ExtractMessage(msg)
}

// ExtractMessage writes every attachment a document reader supports and
// returns how many were written.
func (s *AttachmentService) ExtractMessage(msg internal.MailMessageRow) (int, error) {
	raw, err := os.ReadFile(msg.RawRef)
	if err != nil {
		return 0, err
	}
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("parse message %s: %w", msg.MessageID, err)
	}

	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, attachmentName(p))
	}

	subject := firstNonEmpty(env.GetHeader("Subject"), msg.Subject)
	detect := pipeline.DetectProfileMail(subject, env.Text, names)
	if !detect.IsProfile {
		s.log.Info().Str("messageId", msg.MessageID).Str("reason", detect.Reason).Msg("no profile deck in message")
		return 0, s.db.UpdateMailMessageStatus(msg.ID, StatusSkipped)
	}

	if err := os.MkdirAll(s.profilesDir, 0o755); err != nil {
		return 0, err
	}

	written := 0
	for i, p := range parts {
		if _, ok := pipeline.SourceKindFor(names[i]); !ok {
			continue
		}
		path := filepath.Join(s.profilesDir, names[i])
		if err := os.WriteFile(path, p.Content, 0o644); err != nil {
			return written, err
		}
		written++
		s.log.Info().Str("messageId", msg.MessageID).Str("file", names[i]).Msg("profile attachment saved")
	}

	return written, s.db.UpdateMailMessageStatus(msg.ID, StatusExtracted)
}

func attachmentName(p *enmime.Part) string {
	name := util.SanitizeFilename(filepath.Base(strings.TrimSpace(p.FileName)))
	if name == "" || name == "." {
		return "attachment"
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
