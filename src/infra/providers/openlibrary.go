package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
)

const openLibraryDefaultEndpoint = "https://openlibrary.org/search.json"

type openLibraryResponse struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		Subject          []string `json:"subject"`
		Publisher        []string `json:"publisher"`
		Isbn             []string `json:"isbn"`
		CoverI           int      `json:"cover_i"`
	} `json:"docs"`
}

// OpenLibrary looks up books in the Open Library search API.
type OpenLibrary struct {
	config *config.Manager
	client *http.Client
}

// NewOpenLibrary creates a new OpenLibrary provider.
func NewOpenLibrary(cfg *config.Manager) *OpenLibrary {
	return &OpenLibrary{
		config: cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the provider key used in configuration.
func (p *OpenLibrary) Name() string { return "openlibrary" }

// Lookup searches by title and author. Open Library's subjects are noisy,
// so only the first handful are reported as genre candidates.
func (p *OpenLibrary) Lookup(ctx context.Context, title, author string) (*book.Metadata, error) {
	endpoint := openLibraryDefaultEndpoint
	if pc, ok := p.config.Get().Providers["openlibrary"]; ok && pc.Endpoint != "" {
		endpoint = pc.Endpoint
	}

	params := url.Values{}
	params.Add("title", title)
	if author != "" {
		params.Add("author", author)
	}
	params.Add("limit", "1")
	params.Add("fields", "title,author_name,first_publish_year,subject,publisher,isbn,cover_i")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Open Library API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Open Library API returned status: %d", resp.StatusCode)
	}

	var response openLibraryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse Open Library response: %w", err)
	}
	if len(response.Docs) == 0 {
		return nil, nil
	}

	doc := response.Docs[0]
	md := &book.Metadata{
		Title: book.Str(doc.Title),
	}
	if len(doc.AuthorName) > 0 {
		md.Author = book.Str(strings.Join(doc.AuthorName, ", "))
	}
	if doc.FirstPublishYear > 0 {
		md.Year = book.Str(strconv.Itoa(doc.FirstPublishYear))
	}
	if len(doc.Publisher) > 0 {
		md.Publisher = book.Str(doc.Publisher[0])
	}
	if len(doc.Isbn) > 0 {
		md.ISBN = book.Str(doc.Isbn[0])
	}
	for i, subject := range doc.Subject {
		if i >= 5 {
			break
		}
		md.Genres = append(md.Genres, subject)
	}
	if doc.CoverI > 0 {
		md.CoverURL = book.Str(fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI))
	}

	return md, nil
}
