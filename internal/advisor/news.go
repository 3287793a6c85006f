package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/okanewa/tradewallet/internal/infra"
	"github.com/okanewa/tradewallet/pkg/utils"
)

// DefaultFeeds are the RSS feeds polled when none are configured.
var DefaultFeeds = []string{
	"https://www.coindesk.com/arc/outboundfeeds/rss/",
	"https://finance.yahoo.com/news/rssindex",
}

// Headline is one news item handed to the decision model.
type Headline struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// NewsFetcher pulls recent headlines from RSS feeds, filtered by symbol.
type NewsFetcher struct {
	feeds        []string
	maxHeadlines int
	parser       *gofeed.Parser
	cache        *infra.Cache
	limiter      *infra.RateLimiter
	log          *slog.Logger
}

// NewsOptions configures a NewsFetcher. Zero-value fields use defaults.
type NewsOptions struct {
	Feeds        []string
	MaxHeadlines int
	Logger       *slog.Logger
}

// NewNewsFetcher creates a fetcher over the given feeds.
func NewNewsFetcher(opts *NewsOptions) *NewsFetcher {
	if opts == nil {
		opts = &NewsOptions{}
	}
	feeds := opts.Feeds
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	maxHeadlines := opts.MaxHeadlines
	if maxHeadlines <= 0 {
		maxHeadlines = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsFetcher{
		feeds:        feeds,
		maxHeadlines: maxHeadlines,
		parser:       gofeed.NewParser(),
		cache:        infra.NewCache(10 * time.Minute),
		limiter:      infra.NewRateLimiter(2, time.Second), // conservative: 2 req/s
		log:          logger,
	}
}

// Headlines returns up to MaxHeadlines items relevant to the symbol,
// newest first. When nothing mentions the symbol, the freshest general
// headlines are returned instead. Feed failures are skipped.
func (n *NewsFetcher) Headlines(ctx context.Context, symbol string) []Headline {
	sym := utils.NormalizeSymbol(symbol)

	all := n.allHeadlines(ctx)

	keywords := symbolKeywords(sym)
	var matched []Headline
	for _, h := range all {
		if matchesAny(h.Title+" "+h.Summary, keywords) {
			matched = append(matched, h)
		}
	}
	if len(matched) == 0 {
		matched = all
	}
	if len(matched) > n.maxHeadlines {
		matched = matched[:n.maxHeadlines]
	}
	return matched
}

// allHeadlines fetches every feed, merged and sorted newest first.
func (n *NewsFetcher) allHeadlines(ctx context.Context) []Headline {
	const cacheKey = "news:all"
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]Headline)
	}

	var all []Headline
	for _, feedURL := range n.feeds {
		items, err := n.fetchFeed(ctx, feedURL)
		if err != nil {
			n.log.Warn("skipping news feed", "feed", feedURL, "err", err)
			continue
		}
		all = append(all, items...)
	}

	sortByDate(all)
	n.cache.Set(cacheKey, all)
	return all
}

func (n *NewsFetcher) fetchFeed(ctx context.Context, feedURL string) ([]Headline, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", feedURL, err)
	}

	headlines := make([]Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		h := Headline{
			Title:   item.Title,
			URL:     item.Link,
			Source:  feed.Title,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			h.PublishedAt = *item.PublishedParsed
		}
		headlines = append(headlines, h)
	}
	return headlines, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// symbolKeywords returns search keywords for a symbol.
// For example, "BTC" → ["btc", "bitcoin"].
func symbolKeywords(symbol string) []string {
	s := strings.ToLower(symbol)
	keywords := []string{s}

	nameMap := map[string][]string{
		"btc":  {"bitcoin"},
		"eth":  {"ethereum", "ether"},
		"sol":  {"solana"},
		"ada":  {"cardano"},
		"avax": {"avalanche"},
		"dot":  {"polkadot"},
		"link": {"chainlink"},
		"uni":  {"uniswap"},
		"nvda": {"nvidia"},
		"tsla": {"tesla"},
		"aapl": {"apple"},
		"msft": {"microsoft"},
		"goog": {"google", "alphabet"},
		"amzn": {"amazon"},
		"meta": {"meta platforms", "facebook"},
	}
	if extra, ok := nameMap[s]; ok {
		keywords = append(keywords, extra...)
	}
	return keywords
}

// matchesAny checks if text contains any of the keywords (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sortByDate sorts headlines newest first. Insertion sort — the merged
// slice stays small.
func sortByDate(headlines []Headline) {
	for i := 1; i < len(headlines); i++ {
		key := headlines[i]
		j := i - 1
		for j >= 0 && headlines[j].PublishedAt.Before(key.PublishedAt) {
			headlines[j+1] = headlines[j]
			j--
		}
		headlines[j+1] = key
	}
}
