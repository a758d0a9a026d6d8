// Package encyclopedia looks up a Wikipedia article summary in two steps: a
// title search to find the canonical title, then the REST summary for it.
package encyclopedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog/log"
	"go-toolchat/internal/tools/adapter"
	"go-toolchat/pkg/logger"
	"go-toolchat/pkg/models"
)

const (
	DefaultBaseURL = "https://{lang}.wikipedia.org"
	DefaultLang    = "en"

	msgUnavailable = "The encyclopedia service is unavailable right now."
	msgBadLang     = "That language code is not valid."
	msgNoQuery     = "Please tell me what to look up."
	msgNoSummary   = "That article has no summary available."
)

var langPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]{2})?$`)

type Config struct {
	// BaseURL may contain a {lang} placeholder for the language subdomain.
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type Client struct {
	baseURL string
	fetcher *adapter.Fetcher
}

func New(cfg Config) *Client {
	c := &Client{
		baseURL: cfg.BaseURL,
		fetcher: &adapter.Fetcher{
			Client:    adapter.NewHTTPClient(cfg.Timeout),
			UserAgent: cfg.UserAgent,
		},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	return c
}

type Args struct {
	Query string
	Lang  string
}

func ParseArgs(raw models.Args) Args {
	return Args{
		Query: adapter.String(raw, "query", "q", "topic"),
		Lang:  adapter.String(raw, "lang", "language"),
	}
}

// ValidLang reports whether lang looks like "en" or "pt-br".
func ValidLang(lang string) bool {
	return langPattern.MatchString(strings.ToLower(lang))
}

func (c *Client) Execute(ctx context.Context, raw models.Args, progress adapter.Progress) models.ToolResult {
	article, err := c.Lookup(ctx, ParseArgs(raw), progress)
	return adapter.Result(models.ToolEncyclopedia, models.ToolResult{OK: true, Article: article}, err)
}

func (c *Client) Lookup(ctx context.Context, args Args, progress adapter.Progress) (*models.Article, error) {
	if args.Query == "" {
		return nil, adapter.Fail(adapter.KindValidation, msgNoQuery, goerr.New("empty query"))
	}
	lang := DefaultLang
	if args.Lang != "" {
		if !ValidLang(args.Lang) {
			return nil, adapter.Fail(adapter.KindValidation, msgBadLang, goerr.New("invalid language code", goerr.V("lang", args.Lang)))
		}
		lang = strings.ToLower(args.Lang)
	}
	base := strings.ReplaceAll(c.baseURL, "{lang}", lang)

	progress.Step(fmt.Sprintf("Searching the encyclopedia for %q", args.Query))
	title := c.searchTitle(ctx, base, args.Query)

	progress.Step(fmt.Sprintf("Reading the summary of %q", title))
	return c.summary(ctx, base, lang, title)
}

// searchTitle never fails: when the search is unusable the query itself is
// used as the title.
func (c *Client) searchTitle(ctx context.Context, base, query string) string {
	q := url.Values{}
	q.Set("action", "opensearch")
	q.Set("search", query)
	q.Set("limit", "1")
	q.Set("namespace", "0")
	q.Set("format", "json")

	var resp []json.RawMessage
	if err := c.fetcher.GetJSON(ctx, base+"/w/api.php?"+q.Encode(), &resp); err != nil {
		log.Debug().Err(err).Str(logger.ToolField, string(models.ToolEncyclopedia)).Msg("title search failed, using query")
		return query
	}
	if len(resp) < 2 {
		return query
	}
	var titles []string
	if err := json.Unmarshal(resp[1], &titles); err != nil || len(titles) == 0 {
		return query
	}
	if t := strings.TrimSpace(titles[0]); t != "" {
		return t
	}
	return query
}

type summaryResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

func (c *Client) summary(ctx context.Context, base, lang, title string) (*models.Article, error) {
	u := base + "/api/rest_v1/page/summary/" + pathTitle(title) + "?redirect=true"

	var resp summaryResponse
	if err := c.fetcher.GetJSON(ctx, u, &resp); err != nil {
		f := adapter.Classify(err, msgUnavailable)
		if f.Kind == adapter.KindNotFound {
			f.Message = fmt.Sprintf("I couldn't find an encyclopedia article about %q.", title)
		}
		return nil, f
	}

	extract := strings.TrimSpace(resp.Extract)
	if extract == "" {
		return nil, adapter.Fail(adapter.KindEmpty, msgNoSummary, goerr.New("empty extract", goerr.V("title", title)))
	}

	article := &models.Article{
		Title:       strings.TrimSpace(resp.Title),
		Description: strings.TrimSpace(resp.Description),
		Extract:     extract,
		URL:         resp.ContentURLs.Desktop.Page,
		Lang:        lang,
	}
	if article.Title == "" {
		article.Title = title
	}
	if article.URL == "" {
		article.URL = PageURL(base, article.Title)
	}
	if resp.Thumbnail != nil {
		article.Thumbnail = resp.Thumbnail.Source
	}
	return article, nil
}

// PageURL builds the canonical article URL for title under base.
func PageURL(base, title string) string {
	return base + "/wiki/" + pathTitle(title)
}

func pathTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
