package fetch

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/publication"
)

var (
	errNoAnchor = errors.New("no anchor href contains .pdf")
	errTooLarge = errors.New("pdf exceeds size limit")
)

// PDFPath returns the deterministic local path for a publication's PDF.
func (c *Client) PDFPath(pubID int) string {
	return filepath.Join(c.pdfDir, fmt.Sprintf("pub_%d.pdf", pubID))
}

// FetchPDF makes the publication's PDF available locally and returns its path.
// An existing file at the deterministic path is returned without any network
// access. Otherwise the PDF is located by probing "<link>/pdf", then by
// scanning the landing page for a link to a .pdf, and downloaded.
func (c *Client) FetchPDF(ctx context.Context, pub publication.Ref) (string, error) {
	link := strings.TrimSpace(pub.Link)
	if !isHTTPURL(link) {
		return "", &Error{Kind: KindInvalidLink, URL: link}
	}

	path := c.PDFPath(pub.ID)
	if fileExists(path) {
		c.logger.Debug().Int("pub_id", pub.ID).Str("path", path).Msg("pdf already downloaded")
		return path, nil
	}

	target, err := c.locatePDF(ctx, link)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.pdfDir, 0755); err != nil {
		return "", fmt.Errorf("creating pdf directory: %w", err)
	}
	if err := c.downloadWithRetry(ctx, target, path); err != nil {
		return "", err
	}

	c.logger.Info().Int("pub_id", pub.ID).Str("url", target).Str("path", path).Msg("downloaded pdf")
	return path, nil
}

// locatePDF returns the URL the PDF should be downloaded from.
func (c *Client) locatePDF(ctx context.Context, link string) (string, error) {
	if u, err := url.Parse(link); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return link, nil
	}

	candidate := strings.TrimRight(link, "/") + "/pdf"
	if c.probe(ctx, candidate) {
		return candidate, nil
	}

	return c.scanLandingPage(ctx, link)
}

// probe reports whether target answers with PDF content. Failures are not fatal.
func (c *Client) probe(ctx context.Context, target string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	resp, err := c.get(ctx, target, acceptPDF)
	if err != nil {
		c.logger.Debug().Err(err).Str("url", target).Msg("pdf probe failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	head, _ := bufio.NewReader(resp.Body).Peek(5)
	return isPDFResponse(resp.Header.Get("Content-Type"), head)
}

// scanLandingPage fetches the publication page and returns the first linked PDF.
func (c *Client) scanLandingPage(ctx context.Context, link string) (string, error) {
	resp, err := c.get(ctx, link, acceptHTML)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Kind: KindHTTPStatus, URL: link, StatusCode: resp.StatusCode}
	}

	base := link
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL.String()
	}
	return ResolvePDFLink(base, io.LimitReader(resp.Body, maxPageBytes))
}

// ResolvePDFLink parses an HTML page and returns the absolute URL of the first
// anchor whose href contains ".pdf", resolved against pageURL.
func ResolvePDFLink(pageURL string, page io.Reader) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", &Error{Kind: KindInvalidLink, URL: pageURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", &Error{Kind: KindNoPDFLink, URL: pageURL, Err: err}
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.Contains(strings.ToLower(href), ".pdf") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		found = base.ResolveReference(ref).String()
		return false
	})

	if found == "" {
		return "", &Error{Kind: KindNoPDFLink, URL: pageURL, Err: errNoAnchor}
	}
	return found, nil
}

func (c *Client) downloadWithRetry(ctx context.Context, target, dest string) error {
	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err = c.download(ctx, target, dest)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == c.maxRetries {
			break
		}

		c.logger.Warn().Err(err).Int("attempt", attempt).Str("url", target).Msg("pdf download failed, retrying")
		if c.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return transportError(target, ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}
	}
	return err
}

// download fetches target into dest via a temp file in the same directory, so
// dest exists only once the PDF is complete.
func (c *Client) download(ctx context.Context, target, dest string) error {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	resp, err := c.get(ctx, target, acceptPDF)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindHTTPStatus, URL: target, StatusCode: resp.StatusCode}
	}

	br := bufio.NewReader(resp.Body)
	head, _ := br.Peek(5)
	contentType := resp.Header.Get("Content-Type")
	if !isPDFResponse(contentType, head) {
		return &Error{Kind: KindNonPDFContent, URL: target, Err: fmt.Errorf("content-type %q", contentType)}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	n, copyErr := io.Copy(tmp, io.LimitReader(br, c.maxPDFBytes+1))
	closeErr := tmp.Close()
	switch {
	case copyErr != nil:
		os.Remove(tmpPath)
		return transportError(target, copyErr)
	case n > c.maxPDFBytes:
		os.Remove(tmpPath)
		return &Error{Kind: KindTooLarge, URL: target, Err: errTooLarge}
	case closeErr != nil:
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// isPDFResponse accepts a PDF content type, or a generic binary type whose
// body starts with the PDF magic number.
func isPDFResponse(contentType string, head []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "pdf") {
		return true
	}
	if ct == "" || strings.Contains(ct, "octet-stream") || strings.Contains(ct, "binary") {
		return bytes.HasPrefix(head, []byte("%PDF-"))
	}
	return false
}

func isHTTPURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
