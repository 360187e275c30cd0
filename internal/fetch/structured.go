package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

var errNoPassages = errors.New("no passage text")

type biocCollection struct {
	Documents []biocDocument `json:"documents"`
}

type biocDocument struct {
	Passages []biocPassage `json:"passages"`
}

type biocPassage struct {
	Text string `json:"text"`
}

// StructuredURL returns the structured API URL for id.
func (c *Client) StructuredURL(id string) string {
	return strings.ReplaceAll(c.structuredURL, "{id}", url.PathEscape(id))
}

// FetchStructured retrieves passage text for id from the structured API.
// Passages are joined with newlines in document order.
func (c *Client) FetchStructured(ctx context.Context, id string) (*Content, error) {
	endpoint := c.StructuredURL(id)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(endpoint, err)
		}
	}

	resp, err := c.get(ctx, endpoint, acceptJSON)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindAPI, URL: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBytes))
	if err != nil {
		return nil, transportError(endpoint, err)
	}

	text, err := passageText(body)
	if err != nil {
		return nil, &Error{Kind: KindEmptyContent, URL: endpoint, Err: err}
	}

	c.logger.Debug().Str("id", id).Int("chars", len(text)).Msg("fetched structured text")
	return &Content{Origin: OriginStructuredAPI, RawText: text}, nil
}

// passageText extracts passage text from a BioC JSON body. Both a single
// collection object and an array of collections are accepted.
func passageText(body []byte) (string, error) {
	body = bytes.TrimSpace(body)

	var collections []biocCollection
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &collections); err != nil {
			return "", fmt.Errorf("decoding collections: %w", err)
		}
	} else {
		var single biocCollection
		if err := json.Unmarshal(body, &single); err != nil {
			return "", fmt.Errorf("decoding collection: %w", err)
		}
		collections = []biocCollection{single}
	}

	var texts []string
	for _, col := range collections {
		for _, doc := range col.Documents {
			for _, p := range doc.Passages {
				if strings.TrimSpace(p.Text) != "" {
					texts = append(texts, p.Text)
				}
			}
		}
	}
	if len(texts) == 0 {
		return "", errNoPassages
	}
	return strings.Join(texts, "\n"), nil
}
