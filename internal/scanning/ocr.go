package scanning

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements TextExtractor using a local tesseract installation.
// The extracted text is not trusted on its own; it is handed to the vision
// model as cross-checking context for names and amounts.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates a new Tesseract text extractor.
// languages is a "+"-separated tesseract language list, e.g. "eng+hin".
func NewTesseract(languages string) (*Tesseract, error) {
	client := gosseract.NewClient()

	if languages != "" {
		if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
			client.Close()
			return nil, fmt.Errorf("setting tesseract languages: %w", err)
		}
	}

	return &Tesseract{client: client}, nil
}

// ExtractText runs OCR over one page image and returns the raw text
func (t *Tesseract) ExtractText(imageData []byte) (string, error) {
	if err := t.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("loading image into tesseract: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("running OCR: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Close releases the tesseract client
func (t *Tesseract) Close() error {
	return t.client.Close()
}
