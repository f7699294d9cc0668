package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultArchiveURL is the NASA Exoplanet Archive TAP synchronous endpoint.
	DefaultArchiveURL = "https://exoplanetarchive.ipac.caltech.edu/TAP/sync"

	// DefaultTable is the composite planetary parameters table.
	DefaultTable = "pscomppars"

	// DefaultTimeout for archive requests.
	DefaultTimeout = 60 * time.Second
)

// Fetcher downloads catalog rows from the NASA Exoplanet Archive.
type Fetcher struct {
	client  *http.Client
	url     string
	table   string
	timeout time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithURL sets a custom TAP endpoint.
func WithURL(u string) FetcherOption {
	return func(f *Fetcher) {
		f.url = u
	}
}

// WithTable selects the archive table to query.
func WithTable(table string) FetcherOption {
	return func(f *Fetcher) {
		f.table = table
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher creates a new archive fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		url:     DefaultArchiveURL,
		table:   DefaultTable,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}

	return f
}

// FetchResult contains the result of a fetch operation.
type FetchResult struct {
	Records   []Record
	Stats     LoadStats
	RawBytes  []byte
	FetchedAt time.Time
	Duration  time.Duration
	Error     error
}

// Query returns the ADQL query sent to the archive.
func (f *Fetcher) Query() string {
	cols := []string{
		ColName, ColHost, ColRA, ColDec, ColDistance, ColEqTemp,
		ColRadius, ColOrbitalPeriod, ColStellarTeff, ColDiscoveryMethod,
	}
	return fmt.Sprintf("select %s from %s", strings.Join(cols, ","), f.table)
}

// Fetch retrieves and parses the catalog.
func (f *Fetcher) Fetch(ctx context.Context) FetchResult {
	start := time.Now()
	result := FetchResult{
		FetchedAt: start,
	}

	raw, err := f.fetchRaw(ctx)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}
	result.RawBytes = raw

	records, stats, err := ReadCSV(bytes.NewReader(raw))
	result.Stats = stats
	if err != nil {
		result.Error = fmt.Errorf("parse archive CSV: %w", err)
		return result
	}
	result.Records = records

	return result
}

func (f *Fetcher) fetchRaw(ctx context.Context) ([]byte, error) {
	q := url.Values{}
	q.Set("query", f.Query())
	q.Set("format", "csv")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "ls-exoplanets/1.0 (Exoplanet Explorer)")
	req.Header.Set("Accept", "text/csv")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// URL returns the configured endpoint.
func (f *Fetcher) URL() string {
	return f.url
}
