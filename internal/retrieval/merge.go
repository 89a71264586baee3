package retrieval

import "github.com/hyperjump/clausegate/internal/models"

// Merge unions the channel lists: semantic first, then lexical, each in rank order.
// A passage is kept the first time its ID is seen. Scores are not fused and nothing is re-ranked.
func Merge(semantic, lexical []models.Passage) []models.Passage {
	seen := make(map[string]struct{}, len(semantic)+len(lexical))
	out := make([]models.Passage, 0, len(semantic)+len(lexical))
	for _, list := range [][]models.Passage{semantic, lexical} {
		for _, p := range list {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
