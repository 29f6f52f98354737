package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"profilematch/internal"
	"profilematch/internal/pipeline"
)

var ErrEmptyCorpus = errors.New("no consultant profiles loaded")

const (
	metaLastQuery    = "search.last_query"
	metaLastSearchAt = "search.last_search_at"
)

// CorpusStore is the part of storage the search path reads from.
type CorpusStore interface {
	ListCorpusEntries() ([]internal.ConsultantCorpusEntry, error)
	SetMetadata(key, value string) error
}

type SearchService struct {
	store  CorpusStore
	ranker Ranker
	log    zerolog.Logger
}

func NewSearchService(store CorpusStore, ranker Ranker, log zerolog.Logger) *SearchService {
	return &SearchService{store: store, ranker: ranker, log: log}
}

// Search ranks the stored consultants against skills. An empty skills string
// is a valid query.
func (s *SearchService) Search(ctx context.Context, skills string) (string, error) {
	entries, err := s.store.ListCorpusEntries()
	if err != nil {
		return "", fmt.Errorf("load corpus: %w", err)
	}
	if len(entries) == 0 {
		return "", ErrEmptyCorpus
	}

	corpus := pipeline.BuildCorpus(entries)
	start := time.Now()
	out, err := s.ranker.Rank(ctx, skills, corpus)
	if err != nil {
		return "", fmt.Errorf("rank consultants: %w", err)
	}

	_ = s.store.SetMetadata(metaLastQuery, skills)
	_ = s.store.SetMetadata(metaLastSearchAt, time.Now().UTC().Format(time.RFC3339))
	s.log.Info().
		Int("consultants", len(entries)).
		Int("corpusBytes", len(corpus)).
		Dur("elapsed", time.Since(start)).
		Msg("search ranked")
	return out, nil
}
