package match

import (
	"sort"

	"go.uber.org/zap"

	dommatch "github.com/kailas-cloud/propmatch/internal/domain/match"
	"github.com/kailas-cloud/propmatch/internal/domain/proposal"
	"github.com/kailas-cloud/propmatch/internal/domain/similarity"
)

// score keeps every entry whose rounded similarity reaches threshold, in corpus order.
// An entry that cannot be scored is skipped; the rest are still ranked.
func (s *Service) score(
	log *zap.Logger, vec []float32, entries []proposal.Record, threshold float64,
) []dommatch.Match {
	var kept []dommatch.Match

	for i := range entries {
		e := &entries[i]

		sim, err := similarity.Cosine(vec, e.Embedding())
		if err != nil {
			log.Warn("Skipping proposal", zap.String("title", e.Title()), zap.Error(err))
			continue
		}

		sim = similarity.Round(sim, s.precision)
		if sim >= threshold {
			log.Debug("Matched", zap.String("title", e.Title()), zap.Float64("similarity", sim))
			kept = append(kept, dommatch.New(e.Title(), sim))
		} else {
			log.Debug("Below threshold", zap.String("title", e.Title()), zap.Float64("similarity", sim))
		}
	}

	return kept
}

// rank sorts by score descending, keeping input order for ties, and cuts to topK (0 = no cut).
func rank(matches []dommatch.Match, topK int) []dommatch.Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score() > matches[j].Score()
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	if matches == nil {
		return []dommatch.Match{}
	}
	return matches
}
