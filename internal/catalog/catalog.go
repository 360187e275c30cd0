// Package catalog loads the publication list the pipeline works through.
// Each row of the CSV has a Title and a Link column; a publication's id is
// its zero-based row index.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/publication"
)

// Errors returned by the catalog.
var (
	ErrMissingColumn = errors.New("catalog is missing a required column")
	ErrUnknownID     = errors.New("publication id not in catalog")
)

// Catalog is an ordered, read-only list of publications.
type Catalog struct {
	pubs []publication.Ref
}

// Load reads a catalog CSV from path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses catalog CSV. Column names are matched case-insensitively.
func Read(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading catalog header: %w", err)
	}
	titleCol, linkCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "title":
			titleCol = i
		case "link", "url":
			linkCol = i
		}
	}
	if titleCol < 0 {
		return nil, fmt.Errorf("%w: Title", ErrMissingColumn)
	}
	if linkCol < 0 {
		return nil, fmt.Errorf("%w: Link", ErrMissingColumn)
	}

	c := &Catalog{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading catalog row %d: %w", len(c.pubs), err)
		}
		c.pubs = append(c.pubs, publication.Ref{
			ID:    len(c.pubs),
			Title: strings.TrimSpace(field(rec, titleCol)),
			Link:  strings.TrimSpace(field(rec, linkCol)),
		})
	}
	return c, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// Len returns the number of publications.
func (c *Catalog) Len() int {
	return len(c.pubs)
}

// Get returns the publication with the given id.
func (c *Catalog) Get(id int) (publication.Ref, error) {
	if id < 0 || id >= len(c.pubs) {
		return publication.Ref{}, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return c.pubs[id], nil
}
