// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package combine

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// pdfEngine is the production Engine: ledongthuc/pdf for per-page text
// extraction, pdfcpu for merging.
type pdfEngine struct{}

// NewEngine returns the PDF-backed Engine used in production.
func NewEngine() Engine {
	return pdfEngine{}
}

func (pdfEngine) CountWords(pdfPath string) (int, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer f.Close()

	words := 0
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages without extractable text contribute zero words.
			continue
		}
		words += len(strings.Fields(text))
	}
	return words, nil
}

func (pdfEngine) Merge(inFiles []string, outPath string) error {
	if err := api.MergeCreateFile(inFiles, outPath, false, nil); err != nil {
		return fmt.Errorf("merging into %s: %w", outPath, err)
	}
	return nil
}
