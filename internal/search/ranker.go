package search

import (
	"sort"

	"github.com/starford/agora/internal/models"
)

const (
	// TitleWeight boosts title similarity over content similarity.
	TitleWeight = 1.3
	// MinScore is the lowest composite score a candidate may have.
	MinScore = 60.0
	// MinTagSimilarity is the lowest similarity at which a tag matches.
	MinTagSimilarity = 70.0
	// TagMatchScore is the fixed score of a thread found only via a tag.
	TagMatchScore = 65.0
	// ContentPrefix is how many runes of content are scored.
	ContentPrefix = 500
)

// TaggedThreads pairs a tag with the threads that carry it.
type TaggedThreads struct {
	Tag     models.Tag
	Threads []models.Thread
}

type scored struct {
	score  float64
	seq    int
	thread models.Thread
}

// CompositeScore is max(title*TitleWeight, content) where both sides are
// token-set similarities against the query and content is truncated to
// ContentPrefix runes.
func CompositeScore(query string, t models.Thread) float64 {
	titleScore := TokenSetRatio(query, t.Title)
	contentScore := TokenSetRatio(query, prefix(t.Content, ContentPrefix))
	return max(titleScore*TitleWeight, contentScore)
}

// Rank scores candidates and tag matches against query and returns the
// surviving threads, best first.
//
// Candidates below MinScore are dropped. Any tag scoring at least
// MinTagSimilarity adds its threads at TagMatchScore unless they already
// have a score; a thread is added at most once no matter how many of its
// tags qualify. Equal scores keep insertion order: candidates in the order
// given, then tag matches in tag order.
func Rank(query string, candidates []models.Thread, tags []TaggedThreads) []models.Thread {
	scores := make(map[int64]*scored, len(candidates))
	seq := 0

	for _, t := range candidates {
		if _, ok := scores[t.ID]; ok {
			continue
		}
		score := CompositeScore(query, t)
		if score < MinScore {
			continue
		}
		scores[t.ID] = &scored{score: score, seq: seq, thread: t}
		seq++
	}

	for _, tt := range tags {
		if TokenSetRatio(query, tt.Tag.Name) < MinTagSimilarity {
			continue
		}
		for _, t := range tt.Threads {
			if _, ok := scores[t.ID]; ok {
				continue
			}
			scores[t.ID] = &scored{score: TagMatchScore, seq: seq, thread: t}
			seq++
		}
	}

	ranked := make([]*scored, 0, len(scores))
	for _, s := range scores {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].seq < ranked[j].seq
	})

	out := make([]models.Thread, len(ranked))
	for i, s := range ranked {
		out[i] = s.thread
	}
	return out
}

func prefix(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
