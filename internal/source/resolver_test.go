package source

import (
	"testing"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/publication"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name      string
		link      string
		wantKinds []Kind
		wantID    string
	}{
		{
			name:      "pmc host",
			link:      "https://pmc.example/articles/42",
			wantKinds: []Kind{StructuredAPI, PDFDownload},
			wantID:    "42",
		},
		{
			name:      "ncbi link with accession",
			link:      "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC3630201/",
			wantKinds: []Kind{StructuredAPI, PDFDownload},
			wantID:    "PMC3630201",
		},
		{
			name:      "accession on a mirror",
			link:      "https://mirror.example/PMC555/",
			wantKinds: []Kind{StructuredAPI, PDFDownload},
			wantID:    "PMC555",
		},
		{
			name:      "publisher page",
			link:      "https://journals.example/article/10.1000/182",
			wantKinds: []Kind{PDFDownload},
		},
		{
			name:      "unparseable link",
			link:      "::not a url",
			wantKinds: []Kind{PDFDownload},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(publication.Ref{ID: 9, Title: "t", Link: tt.link})
			if len(got) != len(tt.wantKinds) {
				t.Fatalf("Resolve() returned %d attempts, want %d", len(got), len(tt.wantKinds))
			}
			for i, k := range tt.wantKinds {
				if got[i].Kind != k {
					t.Errorf("attempt %d kind = %s, want %s", i, got[i].Kind, k)
				}
				if got[i].Link != tt.link {
					t.Errorf("attempt %d link = %q, want %q", i, got[i].Link, tt.link)
				}
			}
			if tt.wantID != "" && got[0].ID != tt.wantID {
				t.Errorf("structured id = %q, want %q", got[0].ID, tt.wantID)
			}
		})
	}
}

func TestResolver_StructuredIDFallsBackToCatalogID(t *testing.T) {
	r := NewResolver("pmc.")
	got := r.Resolve(publication.Ref{ID: 17, Title: "t", Link: "https://pmc.example"})
	if got[0].Kind != StructuredAPI {
		t.Fatalf("first attempt = %s, want %s", got[0].Kind, StructuredAPI)
	}
	if got[0].ID != "17" {
		t.Errorf("structured id = %q, want %q", got[0].ID, "17")
	}
}

func TestResolver_CustomHosts(t *testing.T) {
	r := NewResolver("europepmc.org")
	got := r.Resolve(publication.Ref{ID: 1, Title: "t", Link: "https://www.europepmc.org/article/MED/1"})
	if len(got) != 2 || got[0].Kind != StructuredAPI {
		t.Errorf("Resolve() = %+v, want structured attempt first", got)
	}

	got = r.Resolve(publication.Ref{ID: 1, Title: "t", Link: "https://pmc.example/articles/1"})
	if len(got) != 1 {
		t.Errorf("Resolve() = %+v, want only a PDF attempt", got)
	}
}
