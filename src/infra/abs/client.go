package abs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
)

// Item is one library item on an AudiobookShelf server.
type Item struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Metadata ItemMetadata
}

// ItemMetadata is the media metadata slice we read back from the server.
type ItemMetadata struct {
	Title         string   `json:"title"`
	AuthorName    string   `json:"authorName"`
	Genres        []string `json:"genres"`
	SeriesName    string   `json:"seriesName"`
	NarratorName  string   `json:"narratorName"`
	PublishedYear string   `json:"publishedYear"`
}

type libraryItemsResponse struct {
	Results []struct {
		ID    string `json:"id"`
		Path  string `json:"path"`
		Media struct {
			Metadata ItemMetadata `json:"metadata"`
		} `json:"media"`
	} `json:"results"`
	Total int `json:"total"`
	Page  int `json:"page"`
}

// Client talks to an AudiobookShelf server.
type Client struct {
	config *config.Manager
	client *http.Client
}

// NewClient creates a new AudiobookShelf client.
func NewClient(cfg *config.Manager) *Client {
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) baseURL() string {
	return strings.TrimRight(c.config.Get().Abs.BaseURL, "/")
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Get().Abs.APIToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}

// TestConnection verifies the server is reachable and the token works.
func (c *Client) TestConnection(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL()+"/api/libraries", nil)
	if err != nil {
		return fmt.Errorf("failed to reach AudiobookShelf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("AudiobookShelf rejected the API token (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AudiobookShelf returned status: %d", resp.StatusCode)
	}
	return nil
}

// ListItems pages through every item of the configured library.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	libraryID := c.config.Get().Abs.LibraryID
	if libraryID == "" {
		return nil, fmt.Errorf("audiobookshelf library_id is not configured")
	}

	const pageSize = 100
	var items []Item
	for page := 0; ; page++ {
		url := fmt.Sprintf("%s/api/libraries/%s/items?limit=%d&page=%d", c.baseURL(), libraryID, pageSize, page)
		resp, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list library items: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("AudiobookShelf returned status: %d", resp.StatusCode)
		}

		var body libraryItemsResponse
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse library items: %w", err)
		}

		for _, r := range body.Results {
			items = append(items, Item{ID: r.ID, Path: r.Path, Metadata: r.Media.Metadata})
		}
		if len(body.Results) < pageSize {
			break
		}
	}
	return items, nil
}

// UpdateItemMetadata PATCHes the media metadata of one item.
func (c *Client) UpdateItemMetadata(ctx context.Context, itemID string, md *book.Metadata) (int, error) {
	payload := map[string]any{"metadata": buildUpdatePayload(md)}
	url := fmt.Sprintf("%s/api/items/%s/media", c.baseURL(), itemID)

	resp, err := c.do(ctx, http.MethodPatch, url, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to update item %s: %w", itemID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("AudiobookShelf returned status: %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// TriggerRescan asks the server to rescan the configured library.
func (c *Client) TriggerRescan(ctx context.Context) error {
	libraryID := c.config.Get().Abs.LibraryID
	if libraryID == "" {
		return fmt.Errorf("audiobookshelf library_id is not configured")
	}
	url := fmt.Sprintf("%s/api/libraries/%s/scan", c.baseURL(), libraryID)
	resp, err := c.do(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to trigger rescan: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AudiobookShelf returned status: %d", resp.StatusCode)
	}
	return nil
}

// buildUpdatePayload maps canonical metadata to the server's metadata
// shape. Authors and narrators become arrays, series carries its sequence,
// and unknown fields are simply omitted.
func buildUpdatePayload(md *book.Metadata) map[string]any {
	payload := make(map[string]any)
	if book.Has(md.Title) {
		payload["title"] = *md.Title
	}
	if book.Has(md.Subtitle) {
		payload["subtitle"] = *md.Subtitle
	}
	if book.Has(md.Author) {
		authors := make([]map[string]string, 0)
		for _, name := range SplitAuthors(*md.Author) {
			authors = append(authors, map[string]string{"name": name})
		}
		payload["authors"] = authors
	}
	if book.Has(md.Narrator) {
		payload["narrators"] = SplitAuthors(*md.Narrator)
	}
	if book.Has(md.Series) {
		series := map[string]string{"name": *md.Series}
		if book.Has(md.Sequence) {
			series["sequence"] = strings.TrimSpace(*md.Sequence)
		}
		payload["series"] = []map[string]string{series}
	}
	if len(md.Genres) > 0 {
		payload["genres"] = md.Genres
	}
	if book.Has(md.Year) {
		payload["publishedYear"] = *md.Year
	}
	if book.Has(md.Description) {
		payload["description"] = *md.Description
	}
	if book.Has(md.Publisher) {
		payload["publisher"] = *md.Publisher
	}
	if book.Has(md.ISBN) {
		payload["isbn"] = *md.ISBN
	}
	return payload
}

// SplitAuthors splits a combined author or narrator credit into individual
// names on the delimiters servers and stores commonly use.
func SplitAuthors(s string) []string {
	replaced := s
	for _, delim := range []string{" & ", " and ", ";", "/", "|"} {
		replaced = strings.ReplaceAll(replaced, delim, ",")
	}
	parts := strings.Split(replaced, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizePath canonicalizes a file path for matching against server
// paths: forward slashes, no trailing slash, case-insensitive.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	return strings.ToLower(strings.TrimRight(p, "/"))
}

// MatchItem finds the library item for a local file path. It tries the
// exact normalized path first, then walks up the parent directories, since
// the server indexes the book folder rather than the audio file.
func MatchItem(items []Item, filePath string) (*Item, bool) {
	byPath := make(map[string]*Item, len(items))
	for i := range items {
		byPath[NormalizePath(items[i].Path)] = &items[i]
	}

	p := NormalizePath(filePath)
	for p != "" && p != "/" && p != "." {
		if item, ok := byPath[p]; ok {
			return item, true
		}
		p = path.Dir(p)
	}
	return nil, false
}

// MatchItemByMetadata is the fallback when paths don't line up: a
// case-insensitive title match, narrowed by author when one is known.
func MatchItemByMetadata(items []Item, md *book.Metadata) (*Item, bool) {
	if md == nil || !book.Has(md.Title) {
		return nil, false
	}
	title := strings.ToLower(strings.TrimSpace(*md.Title))
	author := ""
	if book.Has(md.Author) {
		author = strings.ToLower(strings.TrimSpace(*md.Author))
	}
	for i := range items {
		if strings.ToLower(strings.TrimSpace(items[i].Metadata.Title)) != title {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(items[i].Metadata.AuthorName), author) {
			continue
		}
		return &items[i], true
	}
	return nil, false
}
