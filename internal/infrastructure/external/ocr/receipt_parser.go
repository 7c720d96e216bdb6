// Package ocr extracts expense fields from receipt files using a
// vision-capable chat model. PDFs are rasterized page by page first;
// plain images go straight to the model.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
)

const visionPrompt = `Extract the following fields from this receipt and respond with a single JSON object:
{
  "amount": <total amount as a number>,
  "currency": "<ISO 4217 currency code>",
  "merchant": "<merchant or vendor name>",
  "category": "<one of: Travel, Meals, Accommodation, Office Supplies, Other>",
  "date": "<date in YYYY-MM-DD format>",
  "description": "<one short line describing the purchase>"
}
Use null for any field you cannot read. Do not add fields.`

// ReceiptParser implements port.ReceiptParser on the OpenAI vision API
type ReceiptParser struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewReceiptParser creates a new receipt parser
func NewReceiptParser(apiKey, model string, logger *zap.Logger) *ReceiptParser {
	return &ReceiptParser{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Parse reads a receipt file and extracts the expense fields
func (p *ReceiptParser) Parse(ctx context.Context, path string) (*port.ParsedReceipt, error) {
	p.logger.Info("Parsing receipt", zap.String("path", path))

	images, err := p.loadImages(path)
	if err != nil {
		p.logger.Error("Failed to load receipt images", zap.Error(err))
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no pages extracted from receipt")
	}

	// First two pages are enough for any receipt and bound the cost
	if len(images) > 2 {
		images = images[:2]
	}

	return p.extractWithVision(ctx, images)
}

// loadImages converts the receipt file into one JPEG per page
func (p *ReceiptParser) loadImages(path string) ([][]byte, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("receipt file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return p.rasterizePDF(path)
	case ".jpg", ".jpeg", ".png":
		return p.readImageFile(path, ext)
	}
	return nil, fmt.Errorf("unsupported file type: %s", ext)
}

// rasterizePDF renders every PDF page to a JPEG using mupdf
func (p *ReceiptParser) rasterizePDF(path string) ([][]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var images [][]byte
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		img, err := doc.Image(pageNum)
		if err != nil {
			p.logger.Warn("Failed to render page", zap.Int("page", pageNum), zap.Error(err))
			continue
		}
		data, err := encodeJPEG(img)
		if err != nil {
			p.logger.Warn("Failed to encode page", zap.Int("page", pageNum), zap.Error(err))
			continue
		}
		images = append(images, data)
	}
	return images, nil
}

func (p *ReceiptParser) readImageFile(path, ext string) ([][]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	var img image.Image
	switch ext {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
	case ".png":
		img, err = png.Decode(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	data, err := encodeJPEG(img)
	if err != nil {
		return nil, err
	}
	return [][]byte{data}, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// extractWithVision sends the page images to the vision model and
// parses the JSON it returns.
func (p *ReceiptParser) extractWithVision(ctx context.Context, images [][]byte) (*port.ParsedReceipt, error) {
	contentParts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: visionPrompt},
	}
	for _, data := range images {
		contentParts = append(contentParts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(data)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   1024,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert at reading receipts and invoices. Always respond with valid JSON.",
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: contentParts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		p.logger.Error("Vision API call failed", zap.Error(err))
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from vision API")
	}

	content := resp.Choices[0].Message.Content

	var parsed port.ParsedReceipt
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		p.logger.Error("Failed to parse vision response", zap.Error(err), zap.String("content", content))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if parsed.Amount == 0 {
		p.logger.Warn("Could not extract an amount from the receipt", zap.String("raw_response", content))
	}

	p.logger.Info("Receipt parsed",
		zap.Float64("amount", parsed.Amount),
		zap.String("currency", parsed.Currency),
		zap.String("merchant", parsed.Merchant))

	return &parsed, nil
}
