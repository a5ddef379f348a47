package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/agora/internal/metrics"
	"github.com/starford/agora/internal/models"
)

// Engine runs the full search pipeline against a Source.
type Engine struct {
	src    Source
	logger *slog.Logger
}

// NewEngine creates a search engine over src.
func NewEngine(src Source, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{src: src, logger: logger}
}

// Search returns every thread matching query, best first. A blank query
// returns no results and no error.
func (e *Engine) Search(ctx context.Context, query string) ([]models.Thread, error) {
	if len(Tokenize(query)) == 0 {
		return nil, nil
	}
	start := time.Now()

	candidates, err := FilterCandidates(ctx, e.src, query)
	if err != nil {
		return nil, fmt.Errorf("search: candidates: %w", err)
	}

	tags, err := e.matchingTags(ctx, query)
	if err != nil {
		return nil, err
	}

	ranked := Rank(query, candidates, tags)

	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	metrics.SearchResults.Observe(float64(len(ranked)))
	e.logger.Debug("search completed",
		slog.String("query", query),
		slog.Int("candidates", len(candidates)),
		slog.Int("tag_matches", len(tags)),
		slog.Int("results", len(ranked)))

	return ranked, nil
}

// matchingTags loads threads only for tags similar enough to the query.
func (e *Engine) matchingTags(ctx context.Context, query string) ([]TaggedThreads, error) {
	all, err := e.src.AllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: tags: %w", err)
	}
	var out []TaggedThreads
	for _, tag := range all {
		if TokenSetRatio(query, tag.Name) < MinTagSimilarity {
			continue
		}
		threads, err := e.src.ThreadsByTag(ctx, tag.ID)
		if err != nil {
			return nil, fmt.Errorf("search: threads for tag %q: %w", tag.Name, err)
		}
		out = append(out, TaggedThreads{Tag: tag, Threads: threads})
	}
	return out, nil
}
