package bill

import "fmt"

// QualityReport summarizes how trustworthy an extraction looks before
// reconciliation is even considered.
type QualityReport struct {
	TotalItems     int      `json:"total_items"`
	ValidItems     int      `json:"valid_items"`
	DroppedItems   int      `json:"dropped_items"`
	DuplicateItems int      `json:"duplicate_items"`
	Issues         []string `json:"issues"`
	Score          float64  `json:"quality_score"`
}

// AssessQuality scores an extraction from 0 to 100: the share of raw
// candidates that survived normalization, penalized for duplicates.
// The caller decides what to do with a low score; assessment never
// rejects anything itself.
func AssessQuality(ex *Extraction) QualityReport {
	report := QualityReport{
		DroppedItems: ex.DroppedItemCount,
		Issues:       []string{},
	}

	for _, page := range ex.Pages {
		for _, item := range page.Items {
			report.ValidItems++
			if item.IsDuplicate {
				report.DuplicateItems++
			}
		}
	}
	report.TotalItems = report.ValidItems + report.DroppedItems

	if report.DroppedItems > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("dropped %d unparseable candidate items", report.DroppedItems))
	}
	if report.DuplicateItems > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("found %d duplicate items", report.DuplicateItems))
	}

	if report.TotalItems == 0 {
		report.Issues = append(report.Issues, "no candidate items in document")
		return report
	}

	validity := float64(report.ValidItems) / float64(report.TotalItems)
	validity *= 1 - float64(report.DuplicateItems)*0.1
	if validity < 0 {
		validity = 0
	}
	report.Score = validity * 100

	return report
}
