// Package publication defines the catalog record the pipeline operates on.
package publication

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Validation errors.
var (
	ErrNegativeID = errors.New("publication id must be non-negative")
	ErrNoTitle    = errors.New("publication title is empty")
	ErrNoLink     = errors.New("publication link is empty")
)

// Ref identifies a publication in the catalog.
// ID is the row index in the catalog and keys every derived file.
type Ref struct {
	ID    int    `json:"pub_id"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Validate checks that the reference carries everything the pipeline needs.
func (r Ref) Validate() error {
	if r.ID < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeID, r.ID)
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrNoTitle
	}
	if strings.TrimSpace(r.Link) == "" {
		return ErrNoLink
	}
	return nil
}

// pmcPattern matches a PubMed Central accession such as PMC3630201.
var pmcPattern = regexp.MustCompile(`(?i)\bPMC\d+\b`)

// PMCID returns the PubMed Central accession carried by the link, or "".
func (r Ref) PMCID() string {
	m := pmcPattern.FindString(r.Link)
	if m == "" {
		return ""
	}
	return strings.ToUpper(m)
}

// LastPathSegment returns the final non-empty path segment of the link.
func (r Ref) LastPathSegment() string {
	u, err := url.Parse(strings.TrimSpace(r.Link))
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

// Host returns the lowercased host of the link, or "" if it does not parse.
func (r Ref) Host() string {
	u, err := url.Parse(strings.TrimSpace(r.Link))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
