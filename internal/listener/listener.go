package listener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"profilematch/internal/config"
	"profilematch/internal/connectors"
	"profilematch/internal/pipeline"
	"profilematch/internal/storage"
)

const fingerprintKey = "listener.profiles_fingerprint"

type connectorFactory func(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error)

// Service keeps the stored profiles in step with the profiles directory and,
// when enabled, with profile decks arriving by mail.
type Service struct {
	db           *storage.DB
	cfg          config.Config
	log          zerolog.Logger
	processor    *pipeline.ProcessingService
	newConnector connectorFactory
}

type CycleResult struct {
	Fetched     int
	Attachments int
	Reloaded    bool
	Loaded      int
}

func NewService(db *storage.DB, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		db:           db,
		cfg:          cfg,
		log:          log,
		processor:    pipeline.NewProcessingService(db, cfg, log),
		newConnector: connectors.New,
	}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(max(1, s.cfg.ListenerIntervalSec)) * time.Second
	changes := s.watch(ctx)
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.log.Error().Err(err).Msg("listener cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		case <-time.After(interval):
		}
	}
}

// watch signals on the returned channel when a profile file changes. When
// no watcher can be set up the channel never fires and Run only polls.
func (s *Service) watch(ctx context.Context) <-chan struct{} {
	changes := make(chan struct{}, 1)
	if err := os.MkdirAll(s.cfg.ProfilesDir, 0o755); err != nil {
		s.log.Warn().Err(err).Msg("profiles watcher disabled")
		return changes
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warn().Err(err).Msg("profiles watcher disabled")
		return changes
	}
	if err := w.Add(s.cfg.ProfilesDir); err != nil {
		_ = w.Close()
		s.log.Warn().Err(err).Str("dir", s.cfg.ProfilesDir).Msg("profiles watcher disabled")
		return changes
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !relevantEvent(ev) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Msg("profiles watcher error")
			}
		}
	}()
	return changes
}

func relevantEvent(ev fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	provider := strings.ToLower(strings.TrimSpace(s.cfg.ListenerProvider))

	if s.cfg.ListenerMailEnabled {
		conn, err := s.newConnector(ctx, s.cfg, provider)
		if err != nil {
			return res, err
		}
		fetched, err := connectors.NewFetchService(s.db, s.cfg.RawMailDir, conn).FetchAndStore(ctx, s.cfg.ListenerLabel, s.cfg.ListenerFetchMax)
		if err != nil {
			return res, err
		}
		extracted, err := connectors.NewAttachmentService(s.db, s.cfg.ProfilesDir, s.log).ExtractPending(s.cfg.ListenerFetchMax, provider)
		if err != nil {
			return res, err
		}
		res.Fetched = fetched.Fetched
		res.Attachments = extracted.Written
	}

	fingerprint, err := directoryFingerprint(s.cfg.ProfilesDir)
	if err != nil {
		return res, err
	}
	last, err := s.db.GetMetadata(fingerprintKey)
	if err != nil {
		return res, err
	}

	if last == nil || *last != fingerprint {
		loaded, err := s.processor.LoadDirectory(ctx, s.cfg.ProfilesDir)
		if err != nil {
			return res, err
		}
		if err := s.db.SetMetadata(fingerprintKey, fingerprint); err != nil {
			return res, err
		}
		res.Reloaded = true
		res.Loaded = loaded.Loaded

		if s.cfg.ListenerAutoExport {
			out := filepath.Join(s.cfg.OutputDir, "listener", "profiles.xlsx")
			if err := pipeline.ExportSlidesToXLSX(loaded.Documents, out); err != nil {
				return res, err
			}
		}
	}

	s.log.Info().
		Str("provider", provider).
		Bool("mail", s.cfg.ListenerMailEnabled).
		Int("fetched", res.Fetched).
		Int("attachments", res.Attachments).
		Bool("reloaded", res.Reloaded).
		Int("loaded", res.Loaded).
		Msg("listener cycle done")
	return res, nil
}

// directoryFingerprint hashes the name, size and mtime of every regular file
// in dir. A missing directory is created and fingerprints as empty.
func directoryFingerprint(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s\x00%d\x00%d", e.Name(), info.Size(), info.ModTime().UnixNano()))
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:]), nil
}
