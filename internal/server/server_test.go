package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/local/pdfextract/internal/extractor"
	"github.com/local/pdfextract/internal/pdfdoc"
	"github.com/local/pdfextract/internal/pdftest"
	"github.com/local/pdfextract/internal/preview"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(extractor.New(extractor.PDFLoader{}), preview.NewRenderer(80, 4), 10<<20)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// multipartBody builds a multipart form with a pdf file part plus fields.
func multipartBody(t *testing.T, filename string, pdf []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var b bytes.Buffer
	mw := multipart.NewWriter(&b)
	fw, err := mw.CreateFormFile("pdf", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(pdf); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	return &b, mw.FormDataContentType()
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestExtractEndpoint(t *testing.T) {
	srv := newTestServer(t)
	body, ctype := multipartBody(t, "sample.pdf", pdftest.MultiPage(10), map[string]string{"pages": "1, 3-5, 8"})

	resp, err := http.Post(srv.URL+"/api/pdf/extract", ctype, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", got)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "extracted-sample.pdf") {
		t.Errorf("Content-Disposition = %q, want extracted-sample.pdf", got)
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	doc, err := pdfdoc.Load(out.Bytes())
	if err != nil {
		t.Fatalf("response is not a loadable PDF: %v", err)
	}
	if got := doc.PageCount(); got != 5 {
		t.Errorf("extracted PageCount() = %d, want 5", got)
	}
}

func TestExtractEndpoint_InvalidSelection(t *testing.T) {
	srv := newTestServer(t)
	body, ctype := multipartBody(t, "sample.pdf", pdftest.MultiPage(10), map[string]string{"pages": "1-99"})

	resp, err := http.Post(srv.URL+"/api/pdf/extract", ctype, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if got, want := decodeError(t, resp), "Invalid range: 1-99. Pages must be between 1 and 10."; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestExtractEndpoint_NotAPDF(t *testing.T) {
	srv := newTestServer(t)
	body, ctype := multipartBody(t, "notes.txt", []byte("plain text, definitely not a PDF"), map[string]string{"pages": "1"})

	resp, err := http.Post(srv.URL+"/api/pdf/extract", ctype, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if got := decodeError(t, resp); got != "Uploaded file is not a PDF." {
		t.Errorf("error = %q", got)
	}
}

func TestExtractEndpoint_MissingFile(t *testing.T) {
	srv := newTestServer(t)
	var b bytes.Buffer
	mw := multipart.NewWriter(&b)
	_ = mw.WriteField("pages", "1")
	_ = mw.Close()

	resp, err := http.Post(srv.URL+"/api/pdf/extract", mw.FormDataContentType(), &b)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInfoEndpoint(t *testing.T) {
	srv := newTestServer(t)
	body, ctype := multipartBody(t, "sample.pdf", pdftest.MultiPage(10), nil)

	resp, err := http.Post(srv.URL+"/api/pdf/info", ctype, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		PageCount int `json:"page_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.PageCount != 10 {
		t.Errorf("page_count = %d, want 10", out.PageCount)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	srv := newTestServer(t)
	body, ctype := multipartBody(t, "sample.pdf", pdftest.MultiPage(3), map[string]string{"page": "1"})

	resp, err := http.Post(srv.URL+"/api/pdf/preview", ctype, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", got)
	}
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if out.Len() == 0 {
		t.Error("preview body is empty")
	}
}

func TestPreviewEndpoint_BadPage(t *testing.T) {
	srv := newTestServer(t)
	body, ctype := multipartBody(t, "sample.pdf", pdftest.MultiPage(3), map[string]string{"page": "abc"})

	resp, err := http.Post(srv.URL+"/api/pdf/preview", ctype, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/pdf/extract")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
