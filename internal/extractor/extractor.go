// Package extractor sequences one page-extraction attempt: load the source
// document, resolve the page specification against its page count, and build
// the output document. It owns the translation of collaborator failures into
// user-facing messages and the per-session single-flight guard.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfextract/internal/metrics"
	"github.com/local/pdfextract/internal/pdfdoc"
	"github.com/local/pdfextract/internal/selection"
)

// State names the phase an extraction attempt is in. A failed attempt
// carries no partial output; the caller resubmits from scratch.
type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateValidating State = "validating"
	StateBuilding   State = "building"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Document is the loaded-document handle the orchestrator works against.
type Document interface {
	PageCount() int
	ExtractPages(indices []int) ([]byte, error)
}

// Loader parses raw source bytes into a Document. Load failures must be
// *pdfdoc.LoadError values so the encrypted case stays distinguishable.
type Loader interface {
	Load(data []byte) (Document, error)
}

// PDFLoader is the production Loader backed by pdfcpu.
type PDFLoader struct{}

func (PDFLoader) Load(data []byte) (Document, error) {
	doc, err := pdfdoc.Load(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Result is a successful extraction. Ownership of Data transfers to the
// caller; nothing is retained across attempts.
type Result struct {
	Data    []byte
	Indices []int
}

// Extractor runs extraction attempts. Construct with New.
type Extractor struct {
	loader Loader
	guard  *Guard
}

// New returns an Extractor using the given loader.
func New(loader Loader) *Extractor {
	return &Extractor{loader: loader, guard: NewGuard()}
}

// Extract runs one attempt for the given session. Concurrent calls for the
// same session are rejected with a KindBusy error. All failures come back as
// *Error with a user-facing Message.
func (e *Extractor) Extract(ctx context.Context, session string, source []byte, pageInput string) (res *Result, err error) {
	if e.loader == nil {
		return nil, &Error{Kind: KindUnavailable, Message: msgUnavailable}
	}
	release, ok := e.guard.Acquire(session)
	if !ok {
		metrics.ObserveExtraction("busy", 0)
		log.Warn().Str("session", session).Msg("extraction rejected: session busy")
		return nil, &Error{Kind: KindBusy, Message: msgBusy}
	}
	defer release()

	attempt := uuid.NewString()
	start := time.Now()
	state := StateIdle

	defer func() {
		if r := recover(); r != nil {
			state = StateFailed
			err = &Error{Kind: KindBuild, Message: msgBuild, Err: fmt.Errorf("panic during extraction: %v", r)}
		}
		outcome := "success"
		if err != nil {
			outcome = outcomeLabel(err)
		}
		metrics.ObserveExtraction(outcome, time.Since(start))
		if err != nil {
			log.Warn().Err(err).
				Str("attempt", attempt).
				Str("session", session).
				Str("state", string(state)).
				Str("outcome", outcome).
				Dur("duration", time.Since(start)).
				Msg("extraction failed")
			return
		}
		log.Info().
			Str("attempt", attempt).
			Str("session", session).
			Str("state", string(state)).
			Str("outcome", outcome).
			Dur("duration", time.Since(start)).
			Msg("extraction finished")
	}()

	if err := ctx.Err(); err != nil {
		state = StateFailed
		return nil, &Error{Kind: KindBuild, Message: msgBuild, Err: err}
	}

	state = StateLoading
	doc, err := e.loader.Load(source)
	if err != nil {
		state = StateFailed
		return nil, translateLoadError(err)
	}

	state = StateValidating
	indices, err := selection.Parse(pageInput, doc.PageCount())
	if err != nil {
		state = StateFailed
		return nil, &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}

	state = StateBuilding
	out, err := doc.ExtractPages(indices)
	if err != nil {
		state = StateFailed
		return nil, &Error{Kind: KindBuild, Message: msgBuild, Err: err}
	}

	state = StateDone
	return &Result{Data: out, Indices: indices}, nil
}

// Inspect loads source bytes and reports the document's page count. Load
// failures are translated the same way Extract translates them.
func (e *Extractor) Inspect(data []byte) (int, error) {
	if e.loader == nil {
		return 0, &Error{Kind: KindUnavailable, Message: msgUnavailable}
	}
	doc, err := e.loader.Load(data)
	if err != nil {
		return 0, translateLoadError(err)
	}
	return doc.PageCount(), nil
}

// translateLoadError maps a loader failure to the user-facing load error,
// keeping the password-protected case distinct from generic corruption.
func translateLoadError(err error) *Error {
	var lerr *pdfdoc.LoadError
	if errors.As(err, &lerr) && lerr.Kind == pdfdoc.KindEncrypted {
		metrics.IncLoadFailure("encrypted")
		return &Error{Kind: KindLoad, Message: msgEncrypted, Err: err}
	}
	metrics.IncLoadFailure("corrupt")
	return &Error{Kind: KindLoad, Message: msgCorrupt, Err: err}
}

func outcomeLabel(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "error"
	}
	switch e.Kind {
	case KindValidation:
		return "validation_error"
	case KindLoad:
		return "load_error"
	case KindBusy:
		return "busy"
	case KindUnavailable:
		return "unavailable"
	default:
		return "build_error"
	}
}

// OutputFilename derives the download name for an extraction of the given
// source file, by convention "extracted-<original-filename>".
func OutputFilename(original string) string {
	name := strings.TrimSpace(filepath.Base(original))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "document.pdf"
	}
	return "extracted-" + name
}
