// Package source decides which acquisition strategies apply to a publication
// and in what order they are tried.
package source

import (
	"strconv"
	"strings"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/publication"
)

// Kind names an acquisition strategy.
type Kind string

const (
	// StructuredAPI fetches passage text from a BioC-style full-text service.
	StructuredAPI Kind = "StructuredAPI"
	// PDFDownload locates and downloads the publication PDF.
	PDFDownload Kind = "PDF"
)

// DefaultStructuredHosts are host fragments served by the structured API.
var DefaultStructuredHosts = []string{"pmc.", "ncbi.nlm.nih.gov", "europepmc.org"}

// Attempt is one strategy to try for a publication.
type Attempt struct {
	Kind Kind
	// ID is the identifier sent to the structured API. Empty for PDF attempts.
	ID   string
	Link string
}

// Resolver orders acquisition attempts for a publication.
type Resolver struct {
	hosts []string
}

// NewResolver creates a resolver. With no hosts the defaults are used.
func NewResolver(hosts ...string) *Resolver {
	if len(hosts) == 0 {
		hosts = DefaultStructuredHosts
	}
	lowered := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			lowered = append(lowered, h)
		}
	}
	return &Resolver{hosts: lowered}
}

// Resolve returns the ordered attempts for pub. It never fails; a
// publication without a structured identifier gets a single PDF attempt.
func (r *Resolver) Resolve(pub publication.Ref) []Attempt {
	pdf := Attempt{Kind: PDFDownload, Link: pub.Link}
	if !r.structured(pub) {
		return []Attempt{pdf}
	}
	return []Attempt{
		{Kind: StructuredAPI, ID: structuredID(pub), Link: pub.Link},
		pdf,
	}
}

func (r *Resolver) structured(pub publication.Ref) bool {
	if pub.PMCID() != "" {
		return true
	}
	host := pub.Host()
	if host == "" {
		return false
	}
	for _, h := range r.hosts {
		if strings.HasPrefix(h, ".") || strings.HasSuffix(h, ".") {
			if strings.HasPrefix(host, h) || strings.HasSuffix(host, h) {
				return true
			}
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// structuredID prefers the PMC accession, then the link's last path segment,
// then the catalog id.
func structuredID(pub publication.Ref) string {
	if id := pub.PMCID(); id != "" {
		return id
	}
	if seg := pub.LastPathSegment(); seg != "" {
		return seg
	}
	return strconv.Itoa(pub.ID)
}
