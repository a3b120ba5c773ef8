// Package edgar talks to SEC EDGAR: ticker lookup, submissions, XBRL company
// facts and filing documents. Requests are rate limited, retried and
// optionally cached.
package edgar

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"financial_analyzer/pkg/core/cache"
	"financial_analyzer/pkg/logger"
	"financial_analyzer/pkg/models"
)

// Cache lifetimes per resource.
const (
	TickerMapTTL    = 6 * time.Hour
	SubmissionsTTL  = 6 * time.Hour
	FilingTextTTL   = 24 * time.Hour
	CompanyFactsTTL = 24 * time.Hour
)

// Endpoints are the SEC URLs used by the client. Submissions and Facts are
// format strings taking the 10-digit CIK.
type Endpoints struct {
	Tickers     string
	Submissions string
	Facts       string
	Archives    string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Tickers:     "https://www.sec.gov/files/company_tickers.json",
		Submissions: "https://data.sec.gov/submissions/CIK%s.json",
		Facts:       "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json",
		Archives:    "https://www.sec.gov/Archives/edgar/data",
	}
}

type Config struct {
	UserAgent       string
	Timeout         time.Duration
	RateLimitPerSec float64
	Endpoints       Endpoints
	Retry           RetryPolicy
	// Cache is optional.
	Cache cache.Store
}

type Client struct {
	http      *http.Client
	userAgent string
	endpoints Endpoints
	limiter   *RateLimiter
	retry     RetryPolicy
	cache     cache.Store
	log       *logger.Logger
}

// NewClient fills zero config fields with defaults.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Endpoints == (Endpoints{}) {
		cfg.Endpoints = DefaultEndpoints()
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		endpoints: cfg.Endpoints,
		limiter:   NewRateLimiter(cfg.RateLimitPerSec),
		retry:     cfg.Retry,
		cache:     cfg.Cache,
		log:       logger.OrNop(log).With("service", "EdgarClient"),
	}
}

// NormalizeCIK zero-pads a CIK to 10 digits.
func NormalizeCIK(cik int) string {
	return models.PadCIK(cik)
}

// BuildArchiveURL is the primary document URL on www.sec.gov.
func BuildArchiveURL(cikInt int, accessionNumber, primaryDoc string) string {
	return buildArchiveURL(DefaultEndpoints().Archives, cikInt, accessionNumber, primaryDoc)
}

func buildArchiveURL(base string, cikInt int, accessionNumber, primaryDoc string) string {
	return fmt.Sprintf("%s/%d/%s/%s",
		strings.TrimRight(base, "/"), cikInt, strings.ReplaceAll(accessionNumber, "-", ""), primaryDoc)
}

// GetTickerMapping returns company_tickers.json rows in numeric key order.
func (c *Client) GetTickerMapping(ctx context.Context) ([]models.TickerRecord, error) {
	var raw map[string]models.TickerRecord
	if err := c.getJSON(ctx, c.endpoints.Tickers, TickerMapTTL, &raw); err != nil {
		return nil, fmt.Errorf("fetch ticker mapping: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	out := make([]models.TickerRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, raw[k])
	}
	return out, nil
}

// TickerToIdentity returns nil, nil when the ticker is not listed.
func (c *Client) TickerToIdentity(ctx context.Context, ticker string) (*models.CompanyIdentity, error) {
	want := strings.ToUpper(strings.TrimSpace(ticker))
	rows, err := c.GetTickerMapping(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if strings.ToUpper(row.Ticker) == want {
			return &models.CompanyIdentity{
				Ticker:      want,
				CIK10:       NormalizeCIK(row.CIK),
				CIKInt:      row.CIK,
				CompanyName: row.Title,
			}, nil
		}
	}
	return nil, nil
}

func (c *Client) GetSubmissions(ctx context.Context, cik10 string) (*models.Submissions, error) {
	var s models.Submissions
	if err := c.getJSON(ctx, fmt.Sprintf(c.endpoints.Submissions, cik10), SubmissionsTTL, &s); err != nil {
		return nil, fmt.Errorf("fetch submissions for CIK %s: %w", cik10, err)
	}
	return &s, nil
}

func (c *Client) GetCompanyFacts(ctx context.Context, cik10 string) (*models.CompanyFacts, error) {
	var f models.CompanyFacts
	if err := c.getJSON(ctx, fmt.Sprintf(c.endpoints.Facts, cik10), CompanyFactsTTL, &f); err != nil {
		return nil, fmt.Errorf("fetch company facts for CIK %s: %w", cik10, err)
	}
	return &f, nil
}

// GetLatestFiling picks the first recent filing of preferredForm, falling
// back to the other of 10-K/10-Q. Returns nil, nil when neither exists.
func (c *Client) GetLatestFiling(ctx context.Context, cik10, preferredForm string) (*models.FilingMetadata, error) {
	subs, err := c.GetSubmissions(ctx, cik10)
	if err != nil {
		return nil, err
	}
	cikInt, err := strconv.Atoi(cik10)
	if err != nil {
		return nil, fmt.Errorf("invalid CIK %q: %w", cik10, err)
	}
	return LatestFiling(subs, cik10, cikInt, preferredForm, c.endpoints.Archives), nil
}

// LatestFiling applies the form preference to a submissions payload.
func LatestFiling(subs *models.Submissions, cik10 string, cikInt int, preferredForm, archivesBase string) *models.FilingMetadata {
	if subs == nil {
		return nil
	}
	recent := subs.Filings.Recent
	preferredForm = strings.ToUpper(strings.TrimSpace(preferredForm))
	if preferredForm == "" {
		preferredForm = "10-K"
	}
	other := "10-K"
	if preferredForm == "10-K" {
		other = "10-Q"
	}

	for _, target := range []string{preferredForm, other} {
		for i, form := range recent.Form {
			if form != target {
				continue
			}
			accession := at(recent.AccessionNumber, i)
			doc := at(recent.PrimaryDocument, i)
			return &models.FilingMetadata{
				Form:            form,
				FilingDate:      at(recent.FilingDate, i),
				AccessionNumber: accession,
				PrimaryDocument: doc,
				CIK10:           cik10,
				CIKInt:          cikInt,
				FilingURL:       buildArchiveURL(archivesBase, cikInt, accession, doc),
			}
		}
	}
	return nil
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// GetFilingText fetches a filing document body.
func (c *Client) GetFilingText(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url, FilingTextTTL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch filing text: %w", err)
	}
	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, url string, ttl time.Duration, out any) error {
	_, err := c.get(ctx, url, ttl, func(body []byte) error {
		if err := json.Unmarshal(body, out); err != nil {
			return &DecodeError{URL: url, Err: err}
		}
		return nil
	})
	return err
}

// get returns the response body for url, consulting the cache first. decode,
// when set, runs inside the retry loop so malformed bodies are re-fetched,
// and only bodies it accepts are cached.
func (c *Client) get(ctx context.Context, url string, ttl time.Duration, decode func([]byte) error) ([]byte, error) {
	key := "sec:" + url
	if c.cache != nil {
		if body, ok, err := c.cache.Get(ctx, key); err != nil {
			c.log.Warn("cache read failed", "url", url, "error", err)
		} else if ok {
			if decode == nil || decode(body) == nil {
				return body, nil
			}
		}
	}

	var body []byte
	err := c.retry.Do(ctx, func(attempt int) error {
		b, err := c.fetch(ctx, url)
		if err == nil && decode != nil {
			err = decode(b)
		}
		if err != nil {
			c.log.Debug("SEC request failed", "url", url, "attempt", attempt, "error", err)
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, ttl); err != nil {
			c.log.Warn("cache write failed", "url", url, "error", err)
		}
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, RetryAfter: retryAfter(resp)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	body, err := decodeBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, &DecodeError{URL: url, Err: err}
	}
	return body, nil
}

// decodeBody undoes gzip or deflate content encoding. Setting
// Accept-Encoding by hand disables net/http's transparent gzip.
func decodeBody(encoding string, raw []byte) ([]byte, error) {
	var r io.ReadCloser
	var err error
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		r, err = gzip.NewReader(bytes.NewReader(raw))
	case "deflate":
		r, err = zlib.NewReader(bytes.NewReader(raw))
	default:
		return raw, nil
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
