package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/markwatch/journal-cli/internal/config"
)

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.APIKey == "" {
			return nil, eris.New("ocr: mistral provider requires api_key")
		}
		m := NewMistralOCR(cfg.APIKey, "")
		if cfg.APIEndpoint != "" {
			m.endpoint = cfg.APIEndpoint
		}
		return m, nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
