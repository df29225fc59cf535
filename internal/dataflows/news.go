package dataflows

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/hweilin/quantmind/config"
	"github.com/hweilin/quantmind/models"
)

// NewsClient fetches company news from the Google News RSS feed.
type NewsClient struct {
	client *resty.Client
	cache  *CacheManager
}

func NewNewsClient(cfg *config.Config) *NewsClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "news")
	cache := NewCacheManager(cacheDir, 2*time.Hour, cfg.CacheEnabled)

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; QuantMind/1.0)")

	return &NewsClient{client: client, cache: cache}
}

// NewsParams bound one feed query.
type NewsParams struct {
	Query      string    `json:"query"`
	Language   string    `json:"language"`
	Country    string    `json:"country"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	MaxResults int       `json:"max_results"`
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Source      string `xml:"source"`
}

// GetCompanyNews returns recent articles matching the query, newest first.
func (nc *NewsClient) GetCompanyNews(params NewsParams) ([]models.NewsArticle, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("news query cannot be empty")
	}
	if params.Language == "" {
		params.Language = "zh-CN"
	}
	if params.Country == "" {
		params.Country = "CN"
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 10
	}

	var cached []models.NewsArticle
	if nc.cache.Get("google_news", "rss", params, &cached) {
		return cached, nil
	}

	feedURL := nc.buildFeedURL(params)

	var articles []models.NewsArticle
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := nc.client.R().Get(feedURL)
		if err != nil {
			return fmt.Errorf("fetch news feed: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("HTTP %d fetching news feed", resp.StatusCode())
		}

		var feed rssFeed
		if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
			return fmt.Errorf("parse news feed: %w", err)
		}

		articles = articles[:0]
		for _, item := range feed.Channel.Items {
			article := nc.toArticle(item)
			if article.Title == "" {
				continue
			}
			articles = append(articles, article)
			if len(articles) >= params.MaxResults {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	nc.cache.Set("google_news", "rss", params, articles)
	return articles, nil
}

func (nc *NewsClient) buildFeedURL(params NewsParams) string {
	query := params.Query
	if !params.StartDate.IsZero() && !params.EndDate.IsZero() {
		query += fmt.Sprintf(" after:%s before:%s",
			params.StartDate.Format("2006-01-02"),
			params.EndDate.Format("2006-01-02"))
	}

	return fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=%s&gl=%s&ceid=%s:%s",
		url.QueryEscape(query), params.Language, params.Country,
		params.Country, params.Language)
}

func (nc *NewsClient) toArticle(item rssItem) models.NewsArticle {
	publishedAt := time.Now()
	if t, err := time.Parse(time.RFC1123, item.PubDate); err == nil {
		publishedAt = t
	} else if t, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
		publishedAt = t
	}

	return models.NewsArticle{
		Title:       strings.TrimSpace(item.Title),
		Content:     stripHTML(item.Description),
		URL:         strings.TrimSpace(item.Link),
		Source:      strings.TrimSpace(item.Source),
		PublishedAt: publishedAt,
	}
}

// stripHTML flattens an RSS description fragment to plain text. Feed
// descriptions wrap the snippet in anchor and font tags.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}
