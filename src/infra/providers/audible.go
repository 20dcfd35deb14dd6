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

const audibleDefaultEndpoint = "https://api.audible.com/1.0/catalog/products"

// audibleResponse is the slice of the catalog API we care about.
type audibleResponse struct {
	Products []audibleProduct `json:"products"`
}

type audibleProduct struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Narrators []struct {
		Name string `json:"name"`
	} `json:"narrators"`
	Series []struct {
		Title    string `json:"title"`
		Sequence string `json:"sequence"`
	} `json:"series"`
	ReleaseDate          string `json:"release_date"`
	PublisherName        string `json:"publisher_name"`
	MerchandisingSummary string `json:"merchandising_summary"`
	Isbn                 string `json:"isbn"`
	ProductImages        map[string]string `json:"product_images"`
	CategoryLadders      []struct {
		Ladder []struct {
			Name string `json:"name"`
		} `json:"ladder"`
	} `json:"category_ladders"`
}

// Audible looks up audiobooks in the Audible catalog API.
type Audible struct {
	config *config.Manager
	client *http.Client
}

// NewAudible creates a new Audible provider.
func NewAudible(cfg *config.Manager) *Audible {
	return &Audible{
		config: cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the provider key used in configuration.
func (p *Audible) Name() string { return "audible" }

// Lookup searches the catalog by title and author and returns the best
// match, or nil when nothing matches.
func (p *Audible) Lookup(ctx context.Context, title, author string) (*book.Metadata, error) {
	endpoint := audibleDefaultEndpoint
	if pc, ok := p.config.Get().Providers["audible"]; ok && pc.Endpoint != "" {
		endpoint = pc.Endpoint
	}

	params := url.Values{}
	params.Add("title", title)
	if author != "" {
		params.Add("author", author)
	}
	params.Add("num_results", "1")
	params.Add("response_groups", "contributors,product_desc,product_extended_attrs,product_attrs,media,series,category_ladders")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Audible API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Audible API returned status: %d", resp.StatusCode)
	}

	var response audibleResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse Audible response: %w", err)
	}
	if len(response.Products) == 0 {
		return nil, nil
	}

	product := response.Products[0]
	md := &book.Metadata{
		Title:       book.Str(product.Title),
		Subtitle:    book.Str(product.Subtitle),
		Publisher:   book.Str(product.PublisherName),
		Description: book.Str(product.MerchandisingSummary),
		ISBN:        book.Str(product.Isbn),
	}
	if len(product.Authors) > 0 {
		names := make([]string, 0, len(product.Authors))
		for _, a := range product.Authors {
			names = append(names, a.Name)
		}
		md.Author = book.Str(strings.Join(names, ", "))
	}
	if len(product.Narrators) > 0 {
		names := make([]string, 0, len(product.Narrators))
		for _, n := range product.Narrators {
			names = append(names, n.Name)
		}
		md.Narrator = book.Str(strings.Join(names, ", "))
	}
	if len(product.Series) > 0 {
		md.Series = book.Str(product.Series[0].Title)
		md.Sequence = book.Str(product.Series[0].Sequence)
	}
	if len(product.ReleaseDate) >= 4 {
		if _, err := strconv.Atoi(product.ReleaseDate[:4]); err == nil {
			md.Year = book.Str(product.ReleaseDate[:4])
		}
	}
	// The catalog's leaf category names are the closest thing to genres.
	for _, ladder := range product.CategoryLadders {
		if n := len(ladder.Ladder); n > 0 {
			md.Genres = append(md.Genres, ladder.Ladder[n-1].Name)
		}
	}
	if img, ok := product.ProductImages["500"]; ok {
		md.CoverURL = book.Str(img)
	}

	return md, nil
}
