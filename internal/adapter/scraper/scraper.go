// Package scraper discovers and extracts articles from a WordPress-style
// news site.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"news-rag/internal/domain"
	"news-rag/internal/infra/httpclient"
)

const (
	minTitleLength   = 5
	minContentLength = 50
	summaryLength    = 200
	maxPageBytes     = 10 << 20
)

// Link selectors probed on the index page, most specific first.
var discoverySelectors = []string{
	".n2-ss-2 a",
	`a[href*="/warcraft/"]`,
	`a[href*="/news/"]`,
	`a[href*="/guide/"]`,
	"article a",
	".post-title a",
	"h1 a, h2 a, h3 a",
}

var titleSelectors = []string{
	"h1.entry-title",
	"h1.post-title",
	"h1.wp-block-post-title",
	".article-title h1",
	"article h1",
	"h1",
	"title",
}

var contentSelectors = []string{
	".entry-content",
	".post-content",
	".wp-block-post-content",
	"article .content",
	".single-content",
	"main article",
}

var dateSelectors = []string{
	"time[datetime]",
	".entry-date",
	".post-date",
	".published",
	`meta[property="article:published_time"]`,
}

var authorSelectors = []string{
	".author-name",
	".entry-author",
	".post-author",
	".byline",
	`meta[name="author"]`,
}

var skipPatterns = []string{
	"/wp-admin/", "/wp-content/", "/wp-json/",
	".jpg", ".png", ".gif", ".pdf", ".css", ".js",
	"/tag/", "/category/", "/author/", "/search/",
	"#", "javascript:", "mailto:",
}

var articlePatterns = []string{
	"/warcraft/", "/diablo/", "/hearthstone/", "/overwatch/", "/news/", "/guide/",
}

// SiteExtractor implements discovery and extraction against one base site.
// All outbound requests share a rate limiter so the crawler never hammers
// the source regardless of worker concurrency.
type SiteExtractor struct {
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	feedParser *gofeed.Parser
	log        *slog.Logger
	category   string
	siteName   string
}

var _ domain.ContentExtractor = (*SiteExtractor)(nil)

// Options tunes the extractor.
type Options struct {
	RequestsPerSecond float64
	RequestTimeout    time.Duration
	Category          string
}

// New creates a SiteExtractor rooted at baseURL.
func New(baseURL string, opts Options, log *slog.Logger) *SiteExtractor {
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1.0
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	category := opts.Category
	if category == "" {
		category = "World of Warcraft"
	}

	base := strings.TrimRight(baseURL, "/")
	return &SiteExtractor{
		baseURL:    base,
		client:     httpclient.NewPooledClient(timeout),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		feedParser: gofeed.NewParser(),
		log:        log,
		category:   category,
		siteName:   siteNameFromURL(base),
	}
}

// DiscoverURLs returns up to maxCount candidate article URLs. It prefers the
// site's RSS feed and falls back to scraping the index page when the feed is
// missing or empty.
func (s *SiteExtractor) DiscoverURLs(ctx context.Context, indexURL string, maxCount int) ([]string, error) {
	if indexURL == "" {
		indexURL = s.baseURL
	}

	if urls := s.discoverFromFeed(ctx, maxCount); len(urls) > 0 {
		s.log.Info("Discovered article urls from feed", "count", len(urls))
		return urls, nil
	}

	urls, err := s.discoverFromIndex(ctx, indexURL, maxCount)
	if err != nil {
		return nil, err
	}
	s.log.Info("Discovered article urls from index page", "count", len(urls))
	return urls, nil
}

func (s *SiteExtractor) discoverFromFeed(ctx context.Context, maxCount int) []string {
	body, err := s.fetch(ctx, s.baseURL+"/feed/")
	if err != nil {
		s.log.Debug("Feed unavailable, falling back to index scrape", "error", err)
		return nil
	}

	feed, err := s.feedParser.ParseString(body)
	if err != nil {
		s.log.Debug("Feed parse failed, falling back to index scrape", "error", err)
		return nil
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" || !s.isArticleURL(link) {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		urls = append(urls, link)
		if len(urls) >= maxCount {
			break
		}
	}
	return urls
}

func (s *SiteExtractor) discoverFromIndex(ctx context.Context, indexURL string, maxCount int) ([]string, error) {
	body, err := s.fetch(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch index page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, selector := range discoverySelectors {
		doc.Find(selector).EachWithBreak(func(_ int, link *goquery.Selection) bool {
			href, ok := link.Attr("href")
			if !ok {
				return true
			}
			full := s.absolutize(href)
			if full == "" || !s.isArticleURL(full) {
				return true
			}
			if _, dup := seen[full]; dup {
				return true
			}
			seen[full] = struct{}{}
			urls = append(urls, full)
			return len(urls) < maxCount
		})
		if len(urls) >= maxCount {
			break
		}
	}
	return urls, nil
}

// Extract fetches one page and builds the article. It returns (nil, nil) for
// pages that are unreachable, lack a title, or carry too little body text;
// the crawler counts those as failures without aborting the batch.
func (s *SiteExtractor) Extract(ctx context.Context, pageURL string) (*domain.Article, error) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		s.log.Warn("Failed to fetch article page", "url", pageURL, "error", err)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		s.log.Warn("Failed to parse article page", "url", pageURL, "error", err)
		return nil, nil
	}

	title := s.extractTitle(doc)
	if title == "" {
		s.log.Warn("No title found on page", "url", pageURL)
		return nil, nil
	}

	content := extractContent(doc)
	if len(strings.TrimSpace(content)) < minContentLength {
		s.log.Warn("Insufficient content on page", "url", pageURL, "length", len(content))
		return nil, nil
	}

	published := extractPublishedDate(doc)
	if published.IsZero() {
		published = time.Now()
	}

	summary := content
	if len(summary) > summaryLength {
		summary = summary[:summaryLength] + "..."
	}

	article := &domain.Article{
		ID:           domain.ArticleID(pageURL),
		Title:        title,
		Content:      content,
		Summary:      summary,
		URL:          pageURL,
		Author:       s.extractAuthor(doc),
		Category:     s.category,
		Tags:         []string{s.category, s.siteName},
		PublishedAt:  published,
		DiscoveredAt: time.Now(),
		Status:       domain.StatusDiscovered,
	}

	s.log.Debug("Extracted article", "url", pageURL, "title", title, "content_length", len(content))
	return article, nil
}

func (s *SiteExtractor) fetch(ctx context.Context, target string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, target)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *SiteExtractor) absolutize(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func (s *SiteExtractor) isArticleURL(candidate string) bool {
	if !strings.HasPrefix(candidate, s.baseURL) {
		return false
	}

	lower := strings.ToLower(candidate)
	for _, pattern := range skipPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	for _, pattern := range articlePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	path := strings.Trim(strings.TrimPrefix(candidate, s.baseURL), "/")
	return len(path) > 0 && strings.Contains(path, "/")
}

func (s *SiteExtractor) extractTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		element := doc.Find(selector).First()
		if element.Length() == 0 {
			continue
		}
		title := strings.TrimSpace(element.Text())
		title = strings.ReplaceAll(title, " - "+s.siteName, "")
		title = strings.ReplaceAll(title, " | "+s.siteName, "")
		if len(title) > minTitleLength {
			return title
		}
	}
	return ""
}

func extractContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		element := doc.Find(selector).First()
		if element.Length() == 0 {
			continue
		}
		element.Find("script, style, nav, aside, footer, header, .advertisement, .ads").Remove()
		text := normalizeWhitespace(element.Text())
		if len(text) > 100 {
			return text
		}
	}
	return ""
}

var frenchMonths = map[string]time.Month{
	"janvier": time.January, "février": time.February, "mars": time.March,
	"avril": time.April, "mai": time.May, "juin": time.June,
	"juillet": time.July, "août": time.August, "septembre": time.September,
	"octobre": time.October, "novembre": time.November, "décembre": time.December,
}

var frenchDatePattern = regexp.MustCompile(`(\d{1,2})\s+(\p{L}+)\s+(\d{4})`)

func extractPublishedDate(doc *goquery.Document) time.Time {
	for _, selector := range dateSelectors {
		element := doc.Find(selector).First()
		if element.Length() == 0 {
			continue
		}

		attr, ok := element.Attr("datetime")
		if !ok {
			attr, _ = element.Attr("content")
		}
		if attr != "" {
			if parsed, err := time.Parse(time.RFC3339, strings.Replace(attr, "Z", "+00:00", 1)); err == nil {
				return parsed
			}
			if parsed, err := time.Parse("2006-01-02", attr); err == nil {
				return parsed
			}
		}

		if parsed, ok := parseFrenchDate(element.Text()); ok {
			return parsed
		}
	}
	return time.Time{}
}

// parseFrenchDate handles dates written as "12 janvier 2024".
func parseFrenchDate(text string) (time.Time, bool) {
	match := frenchDatePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if match == nil {
		return time.Time{}, false
	}
	month, ok := frenchMonths[match[2]]
	if !ok {
		return time.Time{}, false
	}
	var day, year int
	fmt.Sscanf(match[1], "%d", &day)
	fmt.Sscanf(match[3], "%d", &year)
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

func (s *SiteExtractor) extractAuthor(doc *goquery.Document) string {
	for _, selector := range authorSelectors {
		element := doc.Find(selector).First()
		if element.Length() == 0 {
			continue
		}
		author, ok := element.Attr("content")
		if !ok {
			author = element.Text()
		}
		author = strings.TrimSpace(author)
		if len(author) > 1 && len(author) < 50 {
			return author
		}
	}
	return s.siteName
}

func siteNameFromURL(base string) string {
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return "News"
	}
	host := strings.TrimPrefix(parsed.Host, "www.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	if host == "" {
		return "News"
	}
	return strings.ToUpper(host[:1]) + host[1:]
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
