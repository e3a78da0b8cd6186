package drps

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/cookiejar"
	"strings"
	"time"

	"drps-backend/lib/restyutil"
	"drps-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
)

const indexPage = "/dpt/cx_schindex.htm"

type ClientOptions struct {
	// base paths of the two known catalogue editions,
	// e.g. "http://www.drps.ed.ac.uk/24-25"
	CurrentBase  string
	PreviousBase string

	// retry a failed current-edition fetch against the previous edition
	EnableEditionFallback bool

	// when non-nil, every successfully fetched document is persisted
	// verbatim, keyed by a filesystem-safe transform of its URL
	Capture *restyutil.FilesystemOutput

	// optional page cache consulted before the network
	Cache *badger.DB

	Timeout time.Duration
}

// Client fetches and parses catalogue pages. It is not safe for concurrent
// use: a crawl is strictly sequential and the edition base may be rewritten
// once on the fetch failure path.
type Client struct {
	http         *resty.Client
	currentBase  string
	previousBase string
	fallback     bool
	capture      *restyutil.FilesystemOutput
	cache        *pageCache
}

func NewClient(opts ClientOptions) (*Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "scrapers/drps/http")

	c := &Client{
		http:         client,
		currentBase:  strings.TrimSuffix(opts.CurrentBase, "/"),
		previousBase: strings.TrimSuffix(opts.PreviousBase, "/"),
		fallback:     opts.EnableEditionFallback,
		capture:      opts.Capture,
	}
	if opts.Cache != nil {
		c.cache = &pageCache{db: opts.Cache}
	}
	return c, nil
}

// BaseUrl returns the edition base all catalogue URLs should be built
// against. It changes at most once per run, when the first current-edition
// fetch fails and the previous edition answers.
func (c *Client) BaseUrl() string {
	return c.currentBase
}

func (c *Client) IndexUrl() string {
	return c.currentBase + indexPage
}

func (c *Client) getBody(ctx context.Context, url string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, &FetchError{Url: url, Err: err}
	}
	if res.IsError() {
		return nil, &FetchError{Url: url, Status: res.StatusCode()}
	}
	return res.Body(), nil
}

func (c *Client) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if c.cache != nil {
		contents, err := c.cache.get(url)
		if err == nil {
			doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(contents))
			if err == nil {
				return doc, nil
			}
			slog.WarnContext(ctx, "discarding unparsable cached page", "url", url, "err", err)
		} else if err != errPageNotFound {
			slog.WarnContext(ctx, "page cache read failed", "url", url, "err", err)
		}
	}

	slog.DebugContext(ctx, "fetching page", "url", url)

	body, err := c.getBody(ctx, url)
	if err != nil {
		body, url, err = c.fetchPreviousEdition(ctx, url, err)
		if err != nil {
			return nil, err
		}
	}

	if c.capture != nil {
		c.capture.Write(restyutil.FilenameForUrl(url), body)
	}
	if c.cache != nil {
		if err := c.cache.set(url, body); err != nil {
			slog.WarnContext(ctx, "page cache write failed", "url", url, "err", err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, &ParseError{Url: url, Err: err}
	}
	return doc, nil
}

// fetchPreviousEdition retries a failed current-edition URL against the
// previous edition. One failure is treated as edition-wide: on success the
// client permanently switches its base so the rest of the run prefers the
// known-good edition.
func (c *Client) fetchPreviousEdition(ctx context.Context, url string, cause error) ([]byte, string, error) {
	if !c.fallback || c.currentBase == c.previousBase || !strings.HasPrefix(url, c.currentBase) {
		return nil, url, cause
	}

	retryUrl := c.previousBase + strings.TrimPrefix(url, c.currentBase)
	slog.WarnContext(
		ctx, "fetch failed, trying previous edition",
		"url", url, "retry_url", retryUrl, "err", cause,
	)

	body, err := c.getBody(ctx, retryUrl)
	if err != nil {
		return nil, retryUrl, err
	}

	slog.InfoContext(
		ctx, "previous edition answered, switching edition base",
		"base", c.previousBase,
	)
	c.currentBase = c.previousBase
	return body, retryUrl, nil
}
