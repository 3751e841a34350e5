package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Scanner interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Scanner instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// ScanPage analyzes one page image and extracts candidate line items
func (g *Gemini) ScanPage(imageData []byte, ocrText string, pageNo int) (*PageCandidate, TokenUsage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(billScanPrompt, pageNo)
	if ocrText != "" {
		prompt += fmt.Sprintf(ocrContextPrompt, ocrText)
	}

	// Pages are always rendered as PNG before they reach the scanner, and
	// genai.ImageData expects just the format suffix, not the MIME type.
	parts := []genai.Part{
		genai.ImageData("png", imageData),
		genai.Text(prompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, TokenUsage{}, fmt.Errorf("generating content: %w", err)
	}

	var usage TokenUsage
	if resp.UsageMetadata != nil {
		usage = TokenUsage{
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, usage, fmt.Errorf("no response from gemini")
	}

	// Extract text response
	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	candidate, err := parsePageJSON(responseText.String(), pageNo)
	if err != nil {
		return nil, usage, fmt.Errorf("parsing page %d data: %w", pageNo, err)
	}

	return candidate, usage, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
