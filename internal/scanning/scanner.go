package scanning

// ItemCandidate is one raw line item as the LLM reported it. The numeric
// fields are deliberately untyped: models return numbers, quoted numbers
// with currency symbols, or nothing at all. Normalization happens
// downstream in the bill package.
type ItemCandidate struct {
	Name     any `json:"item_name"`
	Amount   any `json:"item_amount"`
	Rate     any `json:"item_rate"`
	Quantity any `json:"item_quantity"`
}

// PageCandidate is the unvalidated per-page extraction result.
// Items is a pointer so a candidate missing the bill_items field entirely
// can be told apart from one with an empty list.
type PageCandidate struct {
	PageNo       any              `json:"page_no"`
	PageType     string           `json:"page_type"`
	Items        *[]ItemCandidate `json:"bill_items"`
	ClaimedTotal any              `json:"claimed_total"`
}

// TokenUsage reports LLM token consumption for a scan. It is opaque
// metadata threaded through to the caller unchanged.
type TokenUsage struct {
	TotalTokens  int `json:"total_tokens"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates usage from another scan.
func (t *TokenUsage) Add(other TokenUsage) {
	t.TotalTokens += other.TotalTokens
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
}

// Scanner defines the interface for page-level bill scanning operations
type Scanner interface {
	// ScanPage analyzes one rendered page image and extracts candidate
	// line items. ocrText, when non-empty, is pre-extracted OCR text for
	// the same page and is handed to the model as additional context.
	ScanPage(imageData []byte, ocrText string, pageNo int) (*PageCandidate, TokenUsage, error)
	// Close closes the scanner and releases resources
	Close() error
}

// TextExtractor extracts raw text from a page image. It is an optional
// collaborator; scanning works without one.
type TextExtractor interface {
	ExtractText(imageData []byte) (string, error)
	Close() error
}
