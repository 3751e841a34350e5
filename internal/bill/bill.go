package bill

import (
	"time"

	"github.com/zombor/bill-audit/internal/scanning"
)

// PageType classifies a page of the source document
type PageType string

const (
	PageTypeBillDetail PageType = "Bill Detail"
	PageTypeFinalBill  PageType = "Final Bill"
	PageTypePharmacy   PageType = "Pharmacy"
	PageTypeUnknown    PageType = "Unknown"
)

// Status is the reconciliation verdict for a document extraction
type Status string

const (
	StatusPerfect     Status = "perfect"
	StatusAcceptable  Status = "acceptable"
	StatusNeedsReview Status = "needs_review"
	StatusNoReference Status = "no_reference"
)

// Item is one normalized line item on one page. Rate is a pointer because
// a unit price is legitimately absent on many bills; Amount is the
// authoritative monetary value and is always set.
type Item struct {
	Name        string
	Quantity    float64
	Rate        *float64
	Amount      float64
	IsDuplicate bool
	// RateMismatch records that Rate*Quantity disagreed with Amount beyond
	// tolerance. The item is kept; the mismatch is surfaced as diagnostics.
	RateMismatch bool
}

// Page is one page of the source document with its normalized items,
// in extraction order.
type Page struct {
	PageNo   int
	PageType PageType
	Items    []Item
}

// Extraction is the whole-document aggregate produced by normalization.
type Extraction struct {
	Pages        []Page
	ClaimedTotal *float64
	// DroppedItemCount is the number of raw candidates discarded during
	// normalization (no name, unparseable amount, metadata names). Used
	// only for the quality report.
	DroppedItemCount int
}

// Reconciliation compares the computed total of non-duplicate items
// against the total claimed on the document itself.
type Reconciliation struct {
	ComputedTotal  float64  `json:"computed_total"`
	ClaimedTotal   *float64 `json:"claimed_total"`
	Variance       *float64 `json:"variance"`
	Status         Status   `json:"status"`
	DuplicateCount int      `json:"duplicate_count"`
}

// Config holds the tolerance policy for deduplication and reconciliation.
// It is passed explicitly so differing policies can be served per caller.
type Config struct {
	// PerfectThreshold is the relative variance at or under which the
	// extraction reconciles perfectly.
	PerfectThreshold float64
	// ReviewThreshold is the relative variance above which the extraction
	// needs manual review.
	ReviewThreshold float64
	// AmountTolerance is the absolute currency tolerance used when
	// comparing two amounts for duplicate detection.
	AmountTolerance float64
	// RelativeTolerance is the relative tolerance used alongside
	// AmountTolerance; the larger of the two wins.
	RelativeTolerance float64
	// Epsilon guards the relative variance division against a zero
	// claimed total.
	Epsilon float64
}

// DefaultConfig returns the standard tolerance policy.
func DefaultConfig() Config {
	return Config{
		PerfectThreshold:  0.005,
		ReviewThreshold:   0.05,
		AmountTolerance:   0.01,
		RelativeTolerance: 0.001,
		Epsilon:           1e-9,
	}
}

// AuditRecord is the persisted machine-readable record of one processed
// document, kept for downstream auditing.
type AuditRecord struct {
	ID             string              `json:"id"`
	Filename       string              `json:"filename"`
	ContentType    string              `json:"content_type"`
	PageCount      int                 `json:"page_count"`
	TotalItemCount int                 `json:"total_item_count"`
	DuplicateCount int                 `json:"duplicate_count"`
	ComputedTotal  float64             `json:"computed_total"`
	ClaimedTotal   *float64            `json:"claimed_total"`
	Status         Status              `json:"status"`
	TokenUsage     scanning.TokenUsage `json:"token_usage"`
	Result         *Response           `json:"result"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
