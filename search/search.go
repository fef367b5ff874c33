// Package search implements cosine-distance scoring and document-level
// aggregation over vector search hits. The storage layer produces raw hits
// (one per embedded sub-unit); this package turns them into a ranked
// document list.
package search

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// NearExactThreshold is the cosine distance below which a question-level hit
// is considered the same question as the query. Such a hit short-circuits
// the broader aggregated search.
const NearExactThreshold = 0.05

// Hit is a single vector search match for one embedded sub-unit (a sentence
// or a generated question) of a document. Distance is cosine distance in
// [0, 2]; lower is closer.
type Hit struct {
	DocumentID uuid.UUID
	Distance   float64
	Text       string
}

// DocumentScore is a document-level aggregate over several hits.
// Score is a mean cosine distance; lower is better.
type DocumentScore struct {
	DocumentID uuid.UUID
	Score      float64
	Hits       int
}

// AggregateDocuments ranks documents by the mean distance of their closest
// maxScoresN hits. A document qualifies only if it has at least maxScoresN
// hits in the candidate set; documents with fewer matching sub-units are
// excluded rather than penalized, so a single lucky near-match cannot
// promote a document. Results are sorted ascending by score; ties keep the
// order in which documents first appear in hits.
func AggregateDocuments(hits []Hit, maxScoresN, topN int) []DocumentScore {
	if maxScoresN <= 0 || topN <= 0 {
		return nil
	}

	perDoc := make(map[uuid.UUID][]float64)
	order := make([]uuid.UUID, 0)
	for _, h := range hits {
		if _, seen := perDoc[h.DocumentID]; !seen {
			order = append(order, h.DocumentID)
		}
		perDoc[h.DocumentID] = append(perDoc[h.DocumentID], h.Distance)
	}

	scores := make([]DocumentScore, 0, len(order))
	for _, id := range order {
		distances := perDoc[id]
		if len(distances) < maxScoresN {
			continue
		}
		sort.Float64s(distances)
		var sum float64
		for _, d := range distances[:maxScoresN] {
			sum += d
		}
		scores = append(scores, DocumentScore{
			DocumentID: id,
			Score:      sum / float64(maxScoresN),
			Hits:       len(distances),
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score < scores[j].Score
	})

	if len(scores) > topN {
		scores = scores[:topN]
	}
	return scores
}

// NearExact reports whether the closest hit qualifies as a near-exact match.
// hits must be ordered ascending by distance.
func NearExact(hits []Hit) (Hit, bool) {
	if len(hits) == 0 || hits[0].Distance >= NearExactThreshold {
		return Hit{}, false
	}
	return hits[0], true
}

// CosineDistance returns 1 - cosine_similarity of two vectors. Vectors of
// different or zero length yield the maximum distance.
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
