// Package sync keeps the client's local record view consistent with the
// remote store. A synchronizer owns one live subscription per
// authenticated actor and derives the ordered view, the category set and
// the aggregate stats from each incoming snapshot.
package sync

import (
	"sort"

	"github.com/msavelyev/stocklive/internal/client/models"
)

// View is the synchronizer's read model: the ordered records, the distinct
// category labels, and a loading flag that is true from subscription start
// until the first snapshot lands.
type View struct {
	Records    []models.Record
	Categories []string
	Loading    bool
}

// Reduce derives a complete view from one snapshot. It is pure: the result
// depends only on the payload, never on the previous view, so replaying
// the same snapshot yields the same view.
//
// Records are ordered by creation timestamp descending; records without a
// parsable timestamp carry the zero time and therefore sort to the tail,
// stably. Categories keep first-seen order with duplicates removed.
func Reduce(snap models.Snapshot) View {
	records := make([]models.Record, len(snap))
	copy(records, snap)

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	seen := make(map[string]struct{}, len(snap))
	categories := make([]string, 0, len(snap))
	for _, r := range snap {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		categories = append(categories, r.Category)
	}

	return View{Records: records, Categories: categories}
}
