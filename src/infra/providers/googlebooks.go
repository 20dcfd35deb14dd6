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

const googleBooksDefaultEndpoint = "https://www.googleapis.com/books/v1/volumes"

type googleBooksResponse struct {
	Items []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			Publisher           string   `json:"publisher"`
			PublishedDate       string   `json:"publishedDate"`
			Description         string   `json:"description"`
			Categories          []string `json:"categories"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// GoogleBooks looks up books in the Google Books volumes API.
type GoogleBooks struct {
	config *config.Manager
	client *http.Client
}

// NewGoogleBooks creates a new GoogleBooks provider.
func NewGoogleBooks(cfg *config.Manager) *GoogleBooks {
	return &GoogleBooks{
		config: cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the provider key used in configuration.
func (p *GoogleBooks) Name() string { return "googlebooks" }

// Lookup searches volumes by title and author.
func (p *GoogleBooks) Lookup(ctx context.Context, title, author string) (*book.Metadata, error) {
	endpoint := googleBooksDefaultEndpoint
	var apiKey string
	if pc, ok := p.config.Get().Providers["googlebooks"]; ok {
		if pc.Endpoint != "" {
			endpoint = pc.Endpoint
		}
		if pc.Secret != nil {
			apiKey = *pc.Secret
		}
	}

	query := fmt.Sprintf("intitle:%q", title)
	if author != "" {
		query += fmt.Sprintf(" inauthor:%q", author)
	}
	params := url.Values{}
	params.Add("q", query)
	params.Add("maxResults", "1")
	params.Add("printType", "books")
	if apiKey != "" {
		params.Add("key", apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Google Books API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google Books API returned status: %d", resp.StatusCode)
	}

	var response googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse Google Books response: %w", err)
	}
	if len(response.Items) == 0 {
		return nil, nil
	}

	info := response.Items[0].VolumeInfo
	md := &book.Metadata{
		Title:       book.Str(info.Title),
		Subtitle:    book.Str(info.Subtitle),
		Publisher:   book.Str(info.Publisher),
		Description: book.Str(info.Description),
		Genres:      append([]string(nil), info.Categories...),
	}
	if len(info.Authors) > 0 {
		md.Author = book.Str(strings.Join(info.Authors, ", "))
	}
	if len(info.PublishedDate) >= 4 {
		if _, err := strconv.Atoi(info.PublishedDate[:4]); err == nil {
			md.Year = book.Str(info.PublishedDate[:4])
		}
	}
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			md.ISBN = book.Str(id.Identifier)
			break
		}
		if id.Type == "ISBN_10" && md.ISBN == nil {
			md.ISBN = book.Str(id.Identifier)
		}
	}
	if info.ImageLinks.Thumbnail != "" {
		// Thumbnails come back over plain http; upgrade the scheme.
		md.CoverURL = book.Str(strings.Replace(info.ImageLinks.Thumbnail, "http://", "https://", 1))
	}

	return md, nil
}
