package extractor

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/local/pdfextract/internal/pdfdoc"
	"github.com/local/pdfextract/internal/pdftest"
)

// stubDocument lets tests control page count and build behavior.
type stubDocument struct {
	pages    int
	out      []byte
	buildErr error
	got      []int
}

func (d *stubDocument) PageCount() int { return d.pages }

func (d *stubDocument) ExtractPages(indices []int) ([]byte, error) {
	d.got = indices
	if d.buildErr != nil {
		return nil, d.buildErr
	}
	return d.out, nil
}

type stubLoader struct {
	doc     *stubDocument
	loadErr error
}

func (l *stubLoader) Load(data []byte) (Document, error) {
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return l.doc, nil
}

func TestExtract_EndToEnd(t *testing.T) {
	ex := New(PDFLoader{})
	source := pdftest.MultiPage(10)

	res, err := ex.Extract(context.Background(), "s1", source, "1, 3-5, 8")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if want := []int{0, 2, 3, 4, 7}; !reflect.DeepEqual(res.Indices, want) {
		t.Errorf("Indices = %v, want %v", res.Indices, want)
	}

	out, err := pdfdoc.Load(res.Data)
	if err != nil {
		t.Fatalf("output does not load: %v", err)
	}
	if got := out.PageCount(); got != 5 {
		t.Errorf("output PageCount() = %d, want 5", got)
	}
}

func TestExtract_ValidationErrorVerbatim(t *testing.T) {
	ex := New(&stubLoader{doc: &stubDocument{pages: 10}})

	_, err := ex.Extract(context.Background(), "s1", nil, "5-3")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if e.Kind != KindValidation {
		t.Errorf("Kind = %v, want KindValidation", e.Kind)
	}
	if want := "Invalid range: 5-3. Pages must be between 1 and 10."; e.Message != want {
		t.Errorf("Message = %q, want %q", e.Message, want)
	}
}

func TestExtract_EncryptedDocument(t *testing.T) {
	ex := New(&stubLoader{loadErr: &pdfdoc.LoadError{
		Kind: pdfdoc.KindEncrypted,
		Err:  errors.New("please provide the correct password"),
	}})

	_, err := ex.Extract(context.Background(), "s1", nil, "1")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if e.Kind != KindLoad {
		t.Errorf("Kind = %v, want KindLoad", e.Kind)
	}
	if e.Message != msgEncrypted {
		t.Errorf("Message = %q, want password-specific message %q", e.Message, msgEncrypted)
	}
}

func TestExtract_CorruptDocument(t *testing.T) {
	ex := New(&stubLoader{loadErr: &pdfdoc.LoadError{
		Kind: pdfdoc.KindCorrupt,
		Err:  errors.New("no header version found"),
	}})

	_, err := ex.Extract(context.Background(), "s1", nil, "1")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if e.Kind != KindLoad || e.Message != msgCorrupt {
		t.Errorf("got kind %v message %q, want KindLoad with generic corruption message", e.Kind, e.Message)
	}
}

func TestExtract_BuildFailure(t *testing.T) {
	ex := New(&stubLoader{doc: &stubDocument{pages: 10, buildErr: errors.New("write failed")}})

	_, err := ex.Extract(context.Background(), "s1", nil, "1-3")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if e.Kind != KindBuild || e.Message != msgBuild {
		t.Errorf("got kind %v message %q, want KindBuild with generic build message", e.Kind, e.Message)
	}
}

func TestExtract_BuildOrderIsAscending(t *testing.T) {
	doc := &stubDocument{pages: 10, out: []byte("pdf")}
	ex := New(&stubLoader{doc: doc})

	if _, err := ex.Extract(context.Background(), "s1", nil, "8,1,3"); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if want := []int{0, 2, 7}; !reflect.DeepEqual(doc.got, want) {
		t.Errorf("ExtractPages received %v, want %v", doc.got, want)
	}
}

func TestExtract_NoLoader(t *testing.T) {
	ex := New(nil)
	_, err := ex.Extract(context.Background(), "s1", nil, "1")
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindUnavailable {
		t.Fatalf("got %v, want KindUnavailable error", err)
	}
}

func TestInspect(t *testing.T) {
	ex := New(PDFLoader{})
	count, err := ex.Inspect(pdftest.MultiPage(7))
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if count != 7 {
		t.Errorf("Inspect = %d, want 7", count)
	}

	if _, err := ex.Inspect([]byte("not a pdf")); err == nil {
		t.Error("Inspect of invalid bytes succeeded, want error")
	}
}

func TestGuard_SingleFlightPerSession(t *testing.T) {
	g := NewGuard()

	release, ok := g.Acquire("a")
	if !ok {
		t.Fatal("first Acquire failed")
	}
	if _, ok := g.Acquire("a"); ok {
		t.Error("second Acquire for busy session succeeded")
	}
	if rel, ok := g.Acquire("b"); !ok {
		t.Error("Acquire for a different session failed")
	} else {
		rel()
	}

	release()
	if rel, ok := g.Acquire("a"); !ok {
		t.Error("Acquire after release failed")
	} else {
		rel()
	}
}

func TestExtract_BusySession(t *testing.T) {
	ex := New(&stubLoader{doc: &stubDocument{pages: 10}})
	release, ok := ex.guard.Acquire("busy")
	if !ok {
		t.Fatal("setup Acquire failed")
	}
	defer release()

	_, err := ex.Extract(context.Background(), "busy", nil, "1")
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindBusy {
		t.Fatalf("got %v, want KindBusy error", err)
	}
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "extracted-report.pdf"},
		{"dir/report.pdf", "extracted-report.pdf"},
		{"", "extracted-document.pdf"},
		{"  ", "extracted-document.pdf"},
	}
	for _, tt := range tests {
		if got := OutputFilename(tt.in); got != tt.want {
			t.Errorf("OutputFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
