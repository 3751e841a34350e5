package bill

import (
	"math"
	"strings"
)

// amountsMatch reports whether two monetary values are equal within the
// configured tolerance: the larger of the absolute tolerance and the
// relative tolerance applied to the bigger magnitude.
func amountsMatch(a, b float64, cfg Config) bool {
	tolerance := math.Max(cfg.AmountTolerance, cfg.RelativeTolerance*math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tolerance
}

// canonicalEntry is the first-seen (amount, quantity) pair for a
// normalized item name.
type canonicalEntry struct {
	amount   float64
	quantity float64
}

// MarkDuplicates walks all items in document order and flags later
// occurrences of an already-seen fingerprint (normalized name + amount +
// quantity, amounts within tolerance). The first occurrence stays
// canonical: summary pages restate detail-page items, and attribution
// should point at the page where the charge was itemized.
//
// Items whose name matches a seen one but whose amount differs are NOT
// duplicates - different dosages or batches can share a name.
//
// Returns the number of items flagged. Setting IsDuplicate is the only
// mutation; running twice over the same extraction yields the same flags.
func MarkDuplicates(ex *Extraction, cfg Config) int {
	seen := make(map[string][]canonicalEntry)
	count := 0

	for pi := range ex.Pages {
		items := ex.Pages[pi].Items
		for ii := range items {
			item := &items[ii]
			item.IsDuplicate = false

			key := strings.ToLower(item.Name)
			duplicate := false
			for _, entry := range seen[key] {
				if amountsMatch(item.Amount, entry.amount, cfg) &&
					amountsMatch(item.Quantity, entry.quantity, cfg) {
					duplicate = true
					break
				}
			}

			if duplicate {
				item.IsDuplicate = true
				count++
				continue
			}

			seen[key] = append(seen[key], canonicalEntry{
				amount:   item.Amount,
				quantity: item.Quantity,
			})
		}
	}

	return count
}
