package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"profilematch/internal"
	"profilematch/internal/config"
	"profilematch/internal/storage"
)

type ProcessingService struct {
	db        *storage.DB
	cfg       config.Config
	log       zerolog.Logger
	extractor *FieldExtractor
	resolver  *NameResolver
}

// NewProcessingService wires the parsing stage. db may be nil when only
// ParseDirectory is used.
func NewProcessingService(db *storage.DB, cfg config.Config, log zerolog.Logger) *ProcessingService {
	return &ProcessingService{
		db:        db,
		cfg:       cfg,
		log:       log,
		extractor: NewDefaultFieldExtractor(),
		resolver:  NewNameResolver(),
	}
}

type LoadResult struct {
	Loaded    int
	Skipped   int
	Failed    int
	Slides    int
	Unchanged int
	Removed   int
	Documents []internal.DocumentRecord
}

type fileOutcome int

const (
	outcomeParsed fileOutcome = iota
	outcomeSkipped
	outcomeFailed
)

type parsedFile struct {
	outcome fileOutcome
	doc     internal.DocumentRecord
	entry   internal.ConsultantCorpusEntry
	hash    string
}

// ParseDirectory reads every supported document in dir and returns the
// parsed records in filename order without touching storage.
func (s *ProcessingService) ParseDirectory(ctx context.Context, dir string) (LoadResult, error) {
	files, err := s.parseAll(ctx, dir)
	if err != nil {
		return LoadResult{}, err
	}
	return summarize(files), nil
}

// LoadDirectory parses dir and makes storage mirror it: documents whose
// content changed are replaced, and documents that are gone from dir or no
// longer parse are removed from the corpus.
func (s *ProcessingService) LoadDirectory(ctx context.Context, dir string) (LoadResult, error) {
	if s.db == nil {
		return LoadResult{}, errors.New("load directory: storage is not configured")
	}
	start := time.Now()

	files, err := s.parseAll(ctx, dir)
	if err != nil {
		return LoadResult{}, err
	}
	parsedAt := time.Now()

	res := summarize(files)
	keep := make([]string, 0, len(res.Documents))
	for _, f := range files {
		if f.outcome != outcomeParsed {
			continue
		}
		keep = append(keep, f.doc.Filename)

		stored, err := s.db.GetDocumentHash(f.doc.Filename)
		if err != nil {
			return LoadResult{}, err
		}
		if stored != nil && *stored == f.hash {
			res.Unchanged++
			continue
		}
		if _, err := s.db.SaveDocument(f.doc, f.entry, f.hash); err != nil {
			return LoadResult{}, fmt.Errorf("save %s: %w", f.doc.Filename, err)
		}
	}

	res.Removed, err = s.db.PruneDocuments(keep)
	if err != nil {
		return LoadResult{}, fmt.Errorf("prune documents: %w", err)
	}
	_ = s.db.InsertRun(uuid.NewString(), "load", map[string]float64{
		"parseMs": float64(parsedAt.Sub(start).Milliseconds()),
		"totalMs": float64(time.Since(start).Milliseconds()),
	}, map[string]int{
		"loaded":    res.Loaded,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
		"slides":    res.Slides,
		"unchanged": res.Unchanged,
		"removed":   res.Removed,
	})

	s.log.Info().
		Str("dir", dir).
		Int("loaded", res.Loaded).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Int("slides", res.Slides).
		Int("unchanged", res.Unchanged).
		Int("removed", res.Removed).
		Msg("profiles loaded")
	return res, nil
}

func (s *ProcessingService) parseAll(ctx context.Context, dir string) ([]parsedFile, error) {
	names, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	out := make([]parsedFile, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.ParseWorkers))
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = s.parseFile(dir, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseFile never fails: unsupported and unreadable documents are reported
// through the outcome and contribute nothing.
func (s *ProcessingService) parseFile(dir, name string) parsedFile {
	kind, ok := SourceKindFor(name)
	if !ok {
		s.log.Info().Str("file", name).Msg("skipping unsupported file type")
		return parsedFile{outcome: outcomeSkipped}
	}

	blob, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		s.log.Warn().Err(err).Str("file", name).Msg("could not read document")
		return parsedFile{outcome: outcomeFailed}
	}

	slides, err := ExtractSlides(kind, blob)
	if err != nil {
		s.log.Warn().Err(err).Str("file", name).Msg("could not parse document")
		return parsedFile{outcome: outcomeFailed}
	}

	doc := s.extractor.BuildDocument(name, slides)
	return parsedFile{
		outcome: outcomeParsed,
		doc:     doc,
		entry:   EntryFromDocument(doc, s.resolver),
		hash:    contentHash(blob),
	}
}

func summarize(files []parsedFile) LoadResult {
	res := LoadResult{Documents: []internal.DocumentRecord{}}
	for _, f := range files {
		switch f.outcome {
		case outcomeParsed:
			res.Loaded++
			res.Slides += len(f.doc.Slides)
			res.Documents = append(res.Documents, f.doc)
		case outcomeSkipped:
			res.Skipped++
		case outcomeFailed:
			res.Failed++
		}
	}
	return res
}

// listFiles returns regular, non-hidden file names in dir sorted by name.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read profiles dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func contentHash(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}
