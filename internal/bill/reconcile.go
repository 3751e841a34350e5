package bill

import "math"

// Reconcile sums non-duplicate item amounts across the whole extraction
// and compares the result against the claimed total. It is a pure
// function of its inputs: wrong upstream data surfaces as needs_review,
// never as a retry or a correction attempt.
func Reconcile(ex *Extraction, cfg Config) Reconciliation {
	var computed float64
	itemCount := 0
	duplicateCount := 0
	for _, page := range ex.Pages {
		for _, item := range page.Items {
			if item.IsDuplicate {
				duplicateCount++
				continue
			}
			computed += item.Amount
			itemCount++
		}
	}

	rec := Reconciliation{
		ComputedTotal:  computed,
		ClaimedTotal:   ex.ClaimedTotal,
		DuplicateCount: duplicateCount,
	}

	if ex.ClaimedTotal == nil {
		rec.Status = StatusNoReference
	} else {
		variance := computed - *ex.ClaimedTotal
		rec.Variance = &variance

		relative := math.Abs(variance) / math.Max(math.Abs(*ex.ClaimedTotal), cfg.Epsilon)
		switch {
		case relative <= cfg.PerfectThreshold:
			rec.Status = StatusPerfect
		case relative <= cfg.ReviewThreshold:
			rec.Status = StatusAcceptable
		default:
			rec.Status = StatusNeedsReview
		}
	}

	// A document that normalized down to nothing is not trustworthy
	// whatever the arithmetic says.
	if itemCount == 0 {
		rec.Status = StatusNeedsReview
	}

	return rec
}
