package gateway

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

const maxHeadlines = 5

// NewsClient fetches best-effort local headlines for a city. Like the
// timezone lookup it never fails a refresh: with no API key, or on any
// upstream failure, it serves generated placeholder articles instead.
type NewsClient struct {
	baseURL string
	apiKey  string
	caller  *caller
}

// NewNewsClient creates a client for the given news endpoint. An empty apiKey
// disables upstream calls entirely; Headlines then always returns placeholders.
func NewNewsClient(baseURL, apiKey string, opts *Options) *NewsClient {
	single := opts.withDefaults()
	single.RetryAttempts = 1
	return &NewsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		caller:  newCaller("news", &single),
	}
}

type newsResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Headlines returns up to maxHeadlines articles for the city. Queries are
// tried from most to least specific (city name, country, generic weather);
// the first query with usable articles wins.
func (c *NewsClient) Headlines(ctx context.Context, cityName, country string) []models.NewsArticle {
	if c.apiKey == "" {
		return placeholderHeadlines(cityName)
	}

	for _, query := range []string{cityName, country, "weather"} {
		if query == "" {
			continue
		}
		articles, err := c.search(ctx, query)
		if err == nil && len(articles) > 0 {
			return articles
		}
	}
	return placeholderHeadlines(cityName)
}

func (c *NewsClient) search(ctx context.Context, query string) ([]models.NewsArticle, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(maxHeadlines))
	params.Set("apiKey", c.apiKey)

	var resp newsResponse
	if err := c.caller.getJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	articles := make([]models.NewsArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		// The upstream redacts removed articles in place rather than
		// omitting them.
		if a.Title == "" || a.Description == "" || a.Title == "[Removed]" || a.Description == "[Removed]" {
			continue
		}
		published := time.Now()
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			published = t
		}
		articles = append(articles, models.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: published,
		})
	}
	return articles, nil
}

// placeholderHeadlines generates offline filler so a card's news section is
// never blank.
func placeholderHeadlines(cityName string) []models.NewsArticle {
	now := time.Now()
	return []models.NewsArticle{
		{
			Title:       "Weather Update for " + cityName,
			Description: "Stay updated with the latest weather conditions and forecasts for your area.",
			Source:      "Weather Service",
			PublishedAt: now,
		},
		{
			Title:       cityName + " Local Development News",
			Description: "Latest updates on city infrastructure, development projects, and community initiatives.",
			Source:      "Local News",
			PublishedAt: now.Add(-1 * time.Hour),
		},
		{
			Title:       "Global Weather Patterns",
			Description: "Current climate trends and weather developments affecting regions worldwide.",
			Source:      "Climate News",
			PublishedAt: now.Add(-2 * time.Hour),
		},
	}
}
