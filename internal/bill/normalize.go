package bill

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/zombor/bill-audit/internal/scanning"
)

// ErrMalformedInput is returned when no page candidate carries line item
// data at all, meaning upstream extraction produced nothing usable.
var ErrMalformedInput = errors.New("no page candidate contains bill items")

// metadataPatterns match names that are document metadata rather than
// billed products or services. An LLM occasionally promotes a date or an
// invoice number to a line item; those are dropped during normalization.
var metadataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),          // dates: YYYY-MM-DD
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`),          // dates: MM/DD/YYYY
	regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
	regexp.MustCompile(`^inv[^a-z]*\d+`),              // invoice numbers
	regexp.MustCompile(`^ref[^a-z]*\d+`),              // reference numbers
	regexp.MustCompile(`^bill[^a-z]*\d+`),             // bill numbers
	regexp.MustCompile(`^id[^a-z]*\d+`),
	regexp.MustCompile(`^\d{2}:\d{2}`),                // times: HH:MM
	regexp.MustCompile(`^page\s*\d+`),
	regexp.MustCompile(`^\d+\s*[-/]\s*\d+$`),          // ranges like "1-5"
	regexp.MustCompile(`^[a-z]+-\d{6}`),               // PREFIX-XXXXXX
	regexp.MustCompile(`^\d{10,}$`),                   // long numeric IDs
}

var numericOnlyPattern = regexp.MustCompile(`^[\d\-/:.]+$`)

// isMetadataName reports whether a trimmed item name looks like document
// metadata instead of a product or service name.
func isMetadataName(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range metadataPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return numericOnlyPattern.MatchString(name)
}

// currencyCleaner strips currency symbols, thousands separators and
// whitespace from a stringly-typed number.
var currencyCleaner = strings.NewReplacer(
	"₹", "", "$", "", "€", "", "£", "",
	",", "", " ", "", " ", "",
)

// parseNumber coerces a loosely-typed candidate value into a non-negative
// float64. A value that cannot be parsed, or parses negative, is treated
// as missing - never as zero.
func parseNumber(v any) *float64 {
	var n float64
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		n = val
	case float32:
		n = float64(val)
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil
		}
		n = f
	case string:
		s := currencyCleaner.Replace(strings.TrimSpace(val))
		s = strings.TrimPrefix(strings.TrimPrefix(s, "Rs."), "Rs")
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		n = f
	default:
		return nil
	}
	if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

// collapseWhitespace trims a name and folds inner whitespace runs into
// single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parsePageType matches a raw page type case-insensitively against the
// known set; anything unmatched becomes Unknown.
func parsePageType(raw string) PageType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bill detail":
		return PageTypeBillDetail
	case "final bill":
		return PageTypeFinalBill
	case "pharmacy":
		return PageTypePharmacy
	default:
		return PageTypeUnknown
	}
}

// parsePageNo coerces the candidate page number, falling back to the
// 1-based sequence position when the model returned nothing usable.
func parsePageNo(v any, seq int) int {
	if n := parseNumber(v); n != nil && *n >= 1 {
		return int(*n)
	}
	if s, ok := v.(string); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n >= 1 {
			return n
		}
	}
	return seq
}

// normalizeItem converts one raw candidate into a typed Item. The second
// return value is false when the candidate is not a line item: no name,
// metadata name, or no parseable amount.
func normalizeItem(c scanning.ItemCandidate) (Item, bool) {
	rawName, ok := c.Name.(string)
	if !ok {
		return Item{}, false
	}
	name := collapseWhitespace(rawName)
	if name == "" || isMetadataName(name) {
		return Item{}, false
	}

	amount := parseNumber(c.Amount)
	if amount == nil {
		return Item{}, false
	}

	quantity := 1.0
	if q := parseNumber(c.Quantity); q != nil {
		quantity = *q
	}

	item := Item{
		Name:     name,
		Quantity: quantity,
		Rate:     parseNumber(c.Rate),
		Amount:   *amount,
	}

	// When both rate and quantity are present, amount should come out to
	// roughly rate*quantity. A mismatch is recorded, not rejected: the
	// stated amount stays authoritative.
	if item.Rate != nil {
		calculated := *item.Rate * item.Quantity
		tolerance := math.Max(0.01, calculated*0.05)
		if math.Abs(calculated-item.Amount) > tolerance {
			item.RateMismatch = true
		}
	}

	return item, true
}

// NormalizePage converts one raw page candidate into a typed Page.
// seq is the 1-based position of the candidate in the document.
func NormalizePage(c scanning.PageCandidate, seq int) (Page, int) {
	page := Page{
		PageNo:   parsePageNo(c.PageNo, seq),
		PageType: parsePageType(c.PageType),
	}

	dropped := 0
	if c.Items != nil {
		page.Items = make([]Item, 0, len(*c.Items))
		for _, raw := range *c.Items {
			item, ok := normalizeItem(raw)
			if !ok {
				dropped++
				continue
			}
			page.Items = append(page.Items, item)
		}
	}

	return page, dropped
}

// NormalizeDocument converts the ordered page candidates for a whole
// document into an Extraction. It fails only when the input is malformed:
// no pages, or no page carrying a bill_items field at all. A document
// whose items all normalize away is still a valid, empty extraction.
func NormalizeDocument(candidates []scanning.PageCandidate) (*Extraction, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedInput)
	}

	anyItems := false
	ex := &Extraction{Pages: make([]Page, 0, len(candidates))}
	for i, c := range candidates {
		if c.Items != nil {
			anyItems = true
		}

		page, dropped := NormalizePage(c, i+1)
		ex.DroppedItemCount += dropped
		ex.Pages = append(ex.Pages, page)

		// The grand total usually lives on a Final Bill summary page, so
		// a total reported there overrides one from an earlier page.
		if total := parseNumber(c.ClaimedTotal); total != nil {
			if ex.ClaimedTotal == nil || page.PageType == PageTypeFinalBill {
				ex.ClaimedTotal = total
			}
		}
	}

	if !anyItems {
		return nil, ErrMalformedInput
	}

	return ex, nil
}
