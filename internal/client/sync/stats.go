package sync

// LowStockThreshold is the stock level below which a record counts as low.
const LowStockThreshold = 10

// Stats are the aggregate counters over one view. Out-of-stock records are
// also low-stock records (0 < 10).
type Stats struct {
	TotalRecords    int
	TotalCategories int
	LowStock        int
	OutOfStock      int
}

// ComputeStats derives the aggregate counters from the view. It is a pure
// function of its argument and is recomputed on every call; nothing is
// cached across snapshots.
func ComputeStats(v View) Stats {
	st := Stats{
		TotalRecords:    len(v.Records),
		TotalCategories: len(v.Categories),
	}
	for _, r := range v.Records {
		if r.Stock < LowStockThreshold {
			st.LowStock++
		}
		if r.Stock == 0 {
			st.OutOfStock++
		}
	}
	return st
}

// CategoryCount pairs a category label with the number of records in it.
type CategoryCount struct {
	Category string
	Count    int
}

// CountByCategory tallies records per category, in the view's category
// order.
func CountByCategory(v View) []CategoryCount {
	counts := make(map[string]int, len(v.Categories))
	for _, r := range v.Records {
		counts[r.Category]++
	}
	out := make([]CategoryCount, 0, len(v.Categories))
	for _, c := range v.Categories {
		out = append(out, CategoryCount{Category: c, Count: counts[c]})
	}
	return out
}
