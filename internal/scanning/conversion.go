package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// billScanPrompt is the shared prompt used by all LLM providers for scanning
// one page of a bill or invoice.
const billScanPrompt = `You are analyzing one page of a medical bill or invoice. Carefully read all text in the image and extract the following information:

1. **Line Items**: Every billed product or service on this page. For each one extract:
   - item_name: the product/service name. Never use dates, invoice numbers, reference IDs, page numbers or other metadata as an item name.
   - item_quantity: the billed quantity as a number (use 1 if not shown).
   - item_rate: the unit price as a number, or null if not shown.
   - item_amount: the line total as a number. Required.
   Do NOT include subtotal, tax or grand total rows as line items.

2. **Page Type**: Classify the page as one of "Bill Detail", "Final Bill", "Pharmacy" or "Unknown".

3. **Claimed Total**: If this page states a grand total or final amount due (labels like "TOTAL", "Grand Total", "Net Amount Payable"), extract it as claimed_total. Otherwise use null.

Return ONLY valid JSON in this exact format:
{
  "page_no": %d,
  "page_type": "Bill Detail",
  "bill_items": [
    {"item_name": "...", "item_quantity": 1, "item_rate": 0.00, "item_amount": 0.00}
  ],
  "claimed_total": null
}

Important:
- All amounts must be plain numbers without currency symbols
- If a field cannot be found, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// ocrContextPrompt is appended when pre-extracted OCR text is available
// for the page.
const ocrContextPrompt = "\n\nFor reference, OCR extracted the following raw text from this page. Use it to cross-check names and amounts you read from the image:\n\n%s"

// pdfToImages renders every page of a PDF as a PNG image. Hospital bills
// routinely span multiple pages and each page is scanned independently.
func pdfToImages(pdfData []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := make([][]byte, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.Image(n)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page %d: %w", n+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding page %d as PNG: %w", n+1, err)
		}
		pages = append(pages, buf.Bytes())
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("PDF contains no pages")
	}
	return pages, nil
}

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) is not supported by Go's standard
	// image package, so it gets its own decoder.
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format by looking
// at the ftyp box brand.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "image/heic" || mimeType == "image/heif" ||
		strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// DocumentPages converts an uploaded document into one PNG image per page.
// PDFs become one image per PDF page; still images become a single page.
func DocumentPages(data []byte, contentType string) ([][]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg" // default
	}

	if mimeType == "application/pdf" {
		pages, err := pdfToImages(data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to images: %w", err)
		}
		return pages, nil
	}

	if mimeType != "image/png" || isHEICFormat(data) || isHEICMimeType(mimeType) {
		pngData, err := imageToPNG(data, mimeType)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return [][]byte{pngData}, nil
	}

	// Already PNG, single page
	return [][]byte{data}, nil
}
