package store

import (
	"math"
	"sort"
	"strings"

	"github.com/Paradorn657/RAG-AI/types"
)

// ContextSeparator joins retrieved chunk contents into one grounding block.
const ContextSeparator = "\n---\n"

// Cosine returns the cosine similarity of a and b. A zero-norm vector or a
// length mismatch yields 0.0 instead of an error; degenerate inputs simply
// never rank.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank scores every entry against queryVec, keeps those at or above
// minScore, and returns the top k by descending similarity. Entries from
// all partitions arrive as one candidate pool; partition identity plays no
// part in ranking. Ties keep their original order (partition order, then
// entry order within the partition) — the sort is stable, so repeated
// queries return the same sequence.
func Rank(entries []types.Entry, queryVec []float64, k int, minScore float64) []types.ScoredEntry {
	candidates := make([]types.ScoredEntry, 0, len(entries))
	for _, e := range entries {
		score := Cosine(queryVec, e.Embedding)
		if score >= minScore {
			candidates = append(candidates, types.ScoredEntry{Entry: e, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if k >= 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// JoinContext concatenates the contents of scored entries, highest
// similarity first, into the grounding block handed to the synthesizer.
// An empty result means no relevant context was found; the caller must
// answer with the fixed no-information message and skip synthesis.
func JoinContext(scored []types.ScoredEntry) string {
	parts := make([]string, len(scored))
	for i, s := range scored {
		parts[i] = s.Entry.Content
	}
	return strings.TrimSpace(strings.Join(parts, ContextSeparator))
}
