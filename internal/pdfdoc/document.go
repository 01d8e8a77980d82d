// Package pdfdoc wraps pdfcpu behind the two document operations the
// extraction flow needs: loading raw bytes into a page-counted handle and
// building a new document from a list of page indices.
package pdfdoc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

// LoadErrorKind tags load failures so callers can branch without inspecting
// error text.
type LoadErrorKind int

const (
	// KindCorrupt covers anything that is not a readable PDF.
	KindCorrupt LoadErrorKind = iota
	// KindEncrypted means the file is password-protected.
	KindEncrypted
)

// LoadError reports a failure to load source bytes into a document.
type LoadError struct {
	Kind LoadErrorKind
	Err  error
}

func (e *LoadError) Error() string {
	if e.Kind == KindEncrypted {
		return fmt.Sprintf("pdfdoc: document is encrypted: %v", e.Err)
	}
	return fmt.Sprintf("pdfdoc: invalid or corrupted document: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Document is a loaded source document. It is valid for the duration of one
// extraction and is not safe for concurrent use.
type Document struct {
	ctx       *model.Context
	pageCount int
}

// Load parses raw bytes into a Document. Failures come back as *LoadError
// with the encrypted case tagged separately from generic corruption.
func Load(data []byte) (*Document, error) {
	conf := model.NewDefaultConfiguration()

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, classifyLoadError(err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, classifyLoadError(err)
	}
	if err := api.OptimizeContext(ctx); err != nil {
		return nil, classifyLoadError(err)
	}
	if ctx.PageCount == 0 {
		return nil, &LoadError{Kind: KindCorrupt, Err: fmt.Errorf("document has no pages")}
	}

	log.Debug().Int("pages", ctx.PageCount).Int("bytes", len(data)).Msg("loaded source document")
	return &Document{ctx: ctx, pageCount: ctx.PageCount}, nil
}

// PageCount returns the number of pages in the loaded document.
func (d *Document) PageCount() int { return d.pageCount }

// ExtractPages builds a new document containing the given zero-based page
// indices, in the given order, and returns its serialized bytes.
func (d *Document) ExtractPages(indices []int) ([]byte, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("pdfdoc: no pages to extract")
	}
	pages := make([]int, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= d.pageCount {
			return nil, fmt.Errorf("pdfdoc: page index %d out of range (document has %d pages)", idx, d.pageCount)
		}
		pages[i] = idx + 1
	}

	extracted, err := pdfcpu.ExtractPages(d.ctx, pages, false)
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: extract pages: %w", err)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(extracted, &buf); err != nil {
		return nil, fmt.Errorf("pdfdoc: write document: %w", err)
	}

	log.Debug().Int("pages", len(pages)).Int("bytes", buf.Len()).Msg("built extracted document")
	return buf.Bytes(), nil
}

// classifyLoadError maps a pdfcpu error to a tagged LoadError. The text
// inspection for the encrypted case is confined to this adapter.
func classifyLoadError(err error) *LoadError {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
		return &LoadError{Kind: KindEncrypted, Err: err}
	}
	return &LoadError{Kind: KindCorrupt, Err: err}
}
