package bill

import (
	"strconv"

	"github.com/zombor/bill-audit/internal/scanning"
)

// Response is the caller-facing payload for a successful extraction.
type Response struct {
	IsSuccess  bool                `json:"is_success"`
	TokenUsage scanning.TokenUsage `json:"token_usage"`
	Data       *ResponseData       `json:"data"`
}

// ResponseData carries the extracted line items and the reconciliation
// verdict.
type ResponseData struct {
	PagewiseLineItems []PageLineItems `json:"pagewise_line_items"`
	TotalItemCount    int             `json:"total_item_count"`
	Reconciliation    Reconciliation  `json:"reconciliation"`
	Diagnostics       Diagnostics     `json:"diagnostics"`
}

// PageLineItems is one page's worth of non-duplicate line items.
type PageLineItems struct {
	PageNo    string         `json:"page_no"`
	PageType  PageType       `json:"page_type"`
	BillItems []ResponseItem `json:"bill_items"`
}

// ResponseItem is one line item in the external contract. ItemRate is
// null when no unit price was derivable.
type ResponseItem struct {
	ItemName     string   `json:"item_name"`
	ItemAmount   float64  `json:"item_amount"`
	ItemRate     *float64 `json:"item_rate"`
	ItemQuantity float64  `json:"item_quantity"`
}

// Diagnostics reports what was excluded or suspicious without silently
// dropping it from the record.
type Diagnostics struct {
	DuplicateItems    []DuplicateItem `json:"duplicate_items"`
	RateMismatchCount int             `json:"rate_mismatch_count"`
}

// DuplicateItem is a flagged duplicate and the page it appeared on.
type DuplicateItem struct {
	PageNo string       `json:"page_no"`
	Item   ResponseItem `json:"item"`
}

// ErrorResponse is the caller-facing payload for a failed request.
type ErrorResponse struct {
	IsSuccess bool   `json:"is_success"`
	Message   string `json:"message"`
}

func responseItem(item Item) ResponseItem {
	return ResponseItem{
		ItemName:     item.Name,
		ItemAmount:   item.Amount,
		ItemRate:     item.Rate,
		ItemQuantity: item.Quantity,
	}
}

// Assemble composes the final response from a deduplicated extraction,
// its reconciliation and the accumulated token usage. Token usage comes
// from the LLM collaborator and passes through unchanged.
func Assemble(ex *Extraction, rec Reconciliation, usage scanning.TokenUsage) *Response {
	data := &ResponseData{
		PagewiseLineItems: make([]PageLineItems, 0, len(ex.Pages)),
		Reconciliation:    rec,
		Diagnostics: Diagnostics{
			DuplicateItems: make([]DuplicateItem, 0),
		},
	}

	for _, page := range ex.Pages {
		pageNo := strconv.Itoa(page.PageNo)
		entry := PageLineItems{
			PageNo:    pageNo,
			PageType:  page.PageType,
			BillItems: make([]ResponseItem, 0, len(page.Items)),
		}

		for _, item := range page.Items {
			if item.RateMismatch {
				data.Diagnostics.RateMismatchCount++
			}
			if item.IsDuplicate {
				data.Diagnostics.DuplicateItems = append(data.Diagnostics.DuplicateItems, DuplicateItem{
					PageNo: pageNo,
					Item:   responseItem(item),
				})
				continue
			}
			entry.BillItems = append(entry.BillItems, responseItem(item))
			data.TotalItemCount++
		}

		data.PagewiseLineItems = append(data.PagewiseLineItems, entry)
	}

	return &Response{
		IsSuccess:  true,
		TokenUsage: usage,
		Data:       data,
	}
}
