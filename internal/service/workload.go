package service

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/participium/participium-api/internal/models"
)

// PickLeastLoaded returns the candidate with the fewest active reports, breaking
// ties by last name then first name under Unicode collation. The ordering is
// total and deterministic, so the same snapshot always yields the same winner.
// Returns nil for an empty pool.
func PickLeastLoaded(candidates []models.Candidate) *models.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	ranked := make([]models.Candidate, len(candidates))
	copy(ranked, candidates)

	collator := collate.New(language.Und, collate.Loose)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.ActiveReportCount != b.ActiveReportCount {
			return a.ActiveReportCount < b.ActiveReportCount
		}
		if cmp := collator.CompareString(a.LastName, b.LastName); cmp != 0 {
			return cmp < 0
		}
		if cmp := collator.CompareString(a.FirstName, b.FirstName); cmp != 0 {
			return cmp < 0
		}
		return false
	})

	winner := ranked[0]
	return &winner
}
