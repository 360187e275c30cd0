package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/publication"
)

const fakePDF = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRateLimit(0), WithRetries(3, 0)}, opts...)
	c, err := NewClient(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClient_RejectsZeroTimeout(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"request", WithTimeout(0)},
		{"probe", WithProbeTimeout(0)},
		{"download", WithDownloadTimeout(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(t.TempDir(), tt.opt)
			if err != ErrNoTimeout {
				t.Errorf("NewClient() error = %v, want %v", err, ErrNoTimeout)
			}
		})
	}
}

func TestResolvePDFLink(t *testing.T) {
	const page = "https://site.example/articles/123"

	tests := []struct {
		name     string
		html     string
		want     string
		wantKind Kind
	}{
		{
			name: "root relative",
			html: `<html><body><a href="/files/paper.pdf">PDF</a></body></html>`,
			want: "https://site.example/files/paper.pdf",
		},
		{
			name: "path relative",
			html: `<a href="paper.pdf">Download</a>`,
			want: "https://site.example/articles/paper.pdf",
		},
		{
			name: "absolute",
			html: `<a href="https://cdn.example/p/1.pdf?dl=1">PDF</a>`,
			want: "https://cdn.example/p/1.pdf?dl=1",
		},
		{
			name: "first match wins",
			html: `<a href="/about">About</a><a href="/a.PDF">A</a><a href="/b.pdf">B</a>`,
			want: "https://site.example/a.PDF",
		},
		{
			name:     "no pdf anchor",
			html:     `<a href="/about">About</a><a>empty</a>`,
			wantKind: KindNoPDFLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePDFLink(page, strings.NewReader(tt.html))
			if tt.wantKind != "" {
				if !IsKind(err, tt.wantKind) {
					t.Fatalf("ResolvePDFLink() error = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolvePDFLink() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolvePDFLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchStructured(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     string
		wantKind Kind
	}{
		{
			name:   "single collection",
			status: http.StatusOK,
			body:   `{"documents":[{"passages":[{"text":"Intro."},{"text":"Results show X."}]}]}`,
			want:   "Intro.\nResults show X.",
		},
		{
			name:   "array of collections",
			status: http.StatusOK,
			body:   `[{"documents":[{"passages":[{"text":"A."}]},{"passages":[{"text":""},{"text":"B."}]}]}]`,
			want:   "A.\nB.",
		},
		{
			name:     "no passages",
			status:   http.StatusOK,
			body:     `{"documents":[{"passages":[]}]}`,
			wantKind: KindEmptyContent,
		},
		{
			name:     "malformed body",
			status:   http.StatusOK,
			body:     `[Error] : No result can be found.`,
			wantKind: KindEmptyContent,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `oops`,
			wantKind: KindAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t, WithStructuredURL(srv.URL+"/bioc/{id}/unicode"))
			got, err := c.FetchStructured(context.Background(), "PMC42")

			if gotPath != "/bioc/PMC42/unicode" {
				t.Errorf("request path = %q", gotPath)
			}
			if tt.wantKind != "" {
				if !IsKind(err, tt.wantKind) {
					t.Fatalf("FetchStructured() error = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchStructured() error = %v", err)
			}
			if got.Origin != OriginStructuredAPI {
				t.Errorf("Origin = %s, want %s", got.Origin, OriginStructuredAPI)
			}
			if got.RawText != tt.want {
				t.Errorf("RawText = %q, want %q", got.RawText, tt.want)
			}
		})
	}
}

func TestFetchStructured_SendsBrowserHeaders(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(`{"documents":[{"passages":[{"text":"x"}]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, WithStructuredURL(srv.URL+"/{id}"))
	if _, err := c.FetchStructured(context.Background(), "1"); err != nil {
		t.Fatalf("FetchStructured() error = %v", err)
	}
	if ua != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", ua, DefaultUserAgent)
	}
}

func TestFetchPDF_InvalidLink(t *testing.T) {
	c := newTestClient(t)
	for _, link := range []string{"", "not a url", "ftp://example.org/a.pdf", "/relative/path"} {
		_, err := c.FetchPDF(context.Background(), publication.Ref{ID: 1, Title: "t", Link: link})
		if !IsKind(err, KindInvalidLink) {
			t.Errorf("FetchPDF(%q) error = %v, want kind %s", link, err, KindInvalidLink)
		}
	}
}

func TestFetchPDF_ExistingFileSkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(fakePDF))
	}))
	defer srv.Close()

	c := newTestClient(t)
	pub := publication.Ref{ID: 5, Title: "t", Link: srv.URL + "/articles/5"}
	if err := os.WriteFile(c.PDFPath(5), []byte(fakePDF), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := c.FetchPDF(context.Background(), pub)
	if err != nil {
		t.Fatalf("FetchPDF() error = %v", err)
	}
	if path != c.PDFPath(5) {
		t.Errorf("path = %q, want %q", path, c.PDFPath(5))
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("server received %d requests, want 0", n)
	}
}

func TestFetchPDF_Probe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/articles/1/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(fakePDF))
	})
	mux.HandleFunc("/articles/1", func(w http.ResponseWriter, r *http.Request) {
		t.Error("landing page should not be fetched when the probe succeeds")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t)
	path, err := c.FetchPDF(context.Background(), publication.Ref{ID: 1, Title: "t", Link: srv.URL + "/articles/1/"})
	if err != nil {
		t.Fatalf("FetchPDF() error = %v", err)
	}
	assertFileContent(t, path, fakePDF)
}

func TestFetchPDF_LandingPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/articles/2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><a href="/files/paper.pdf">Full text</a></body></html>`))
	})
	mux.HandleFunc("/files/paper.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte(fakePDF))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t)
	path, err := c.FetchPDF(context.Background(), publication.Ref{ID: 2, Title: "t", Link: srv.URL + "/articles/2"})
	if err != nil {
		t.Fatalf("FetchPDF() error = %v", err)
	}
	if filepath.Base(path) != "pub_2.pdf" {
		t.Errorf("path = %q, want pub_2.pdf", path)
	}
	assertFileContent(t, path, fakePDF)
}

func TestFetchPDF_Failures(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		pdf      http.HandlerFunc
		wantKind Kind
	}{
		{
			name:     "no pdf link",
			page:     `<a href="/about">About</a>`,
			wantKind: KindNoPDFLink,
		},
		{
			name: "html instead of pdf",
			page: `<a href="/files/paper.pdf">PDF</a>`,
			pdf: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte("<html>paywall</html>"))
			},
			wantKind: KindNonPDFContent,
		},
		{
			name: "missing file",
			page: `<a href="/files/paper.pdf">PDF</a>`,
			pdf: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantKind: KindHTTPStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/articles/3", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.page))
			})
			if tt.pdf != nil {
				mux.HandleFunc("/files/paper.pdf", tt.pdf)
			}
			srv := httptest.NewServer(mux)
			defer srv.Close()

			c := newTestClient(t)
			_, err := c.FetchPDF(context.Background(), publication.Ref{ID: 3, Title: "t", Link: srv.URL + "/articles/3"})
			if !IsKind(err, tt.wantKind) {
				t.Fatalf("FetchPDF() error = %v, want kind %s", err, tt.wantKind)
			}
			if fileExists(c.PDFPath(3)) {
				t.Error("no file should be written on failure")
			}
		})
	}
}

func TestFetchPDF_RetriesServerErrors(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/doc.pdf", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(fakePDF))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t)
	path, err := c.FetchPDF(context.Background(), publication.Ref{ID: 4, Title: "t", Link: srv.URL + "/doc.pdf"})
	if err != nil {
		t.Fatalf("FetchPDF() error = %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("download attempts = %d, want 3", n)
	}
	assertFileContent(t, path, fakePDF)
}

func TestFetchPDF_RetryBudgetExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, WithRetries(2, 0))
	_, err := c.FetchPDF(context.Background(), publication.Ref{ID: 6, Title: "t", Link: srv.URL + "/doc.pdf"})
	if !IsKind(err, KindHTTPStatus) {
		t.Fatalf("FetchPDF() error = %v, want kind %s", err, KindHTTPStatus)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("download attempts = %d, want 2", n)
	}
}

func TestFetchPDF_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(fakePDF + strings.Repeat("x", 1024)))
	}))
	defer srv.Close()

	c := newTestClient(t, WithMaxPDFBytes(100))
	_, err := c.FetchPDF(context.Background(), publication.Ref{ID: 8, Title: "t", Link: srv.URL + "/big.pdf"})
	if !IsKind(err, KindTooLarge) {
		t.Fatalf("FetchPDF() error = %v, want kind %s", err, KindTooLarge)
	}
}

func TestFetchPDF_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, WithDownloadTimeout(50*time.Millisecond), WithRetries(1, 0))
	_, err := c.FetchPDF(context.Background(), publication.Ref{ID: 9, Title: "t", Link: srv.URL + "/slow.pdf"})
	if !IsKind(err, KindNetworkTimeout) {
		t.Fatalf("FetchPDF() error = %v, want kind %s", err, KindNetworkTimeout)
	}
}

func TestIsPDFResponse(t *testing.T) {
	tests := []struct {
		contentType string
		head        string
		want        bool
	}{
		{"application/pdf", "", true},
		{"application/x-pdf; charset=binary", "", true},
		{"application/octet-stream", "%PDF-", true},
		{"application/octet-stream", "<html", false},
		{"", "%PDF-", true},
		{"text/html; charset=utf-8", "%PDF-", false},
	}

	for _, tt := range tests {
		if got := isPDFResponse(tt.contentType, []byte(tt.head)); got != tt.want {
			t.Errorf("isPDFResponse(%q, %q) = %v, want %v", tt.contentType, tt.head, got, tt.want)
		}
	}
}

func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}
}
