// Package cbr converts monetary amounts using the Central Bank of Russia
// daily exchange rate feed. All cross rates go through RUB, the feed's base
// currency.
package cbr

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/exception-s/BankApplication/internal/apperrors"
	"github.com/exception-s/BankApplication/internal/core/domain"
	portssvc "github.com/exception-s/BankApplication/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// DefaultFeedURL is the CBR daily quotation endpoint.
const DefaultFeedURL = "http://www.cbr.ru/scripts/XML_daily.asp"

const defaultTimeout = 5 * time.Second

// rateScale is the precision rates are normalized to after dividing the
// quoted value by its nominal.
const rateScale = 6

// Client fetches the CBR rate table and exposes currency conversion.
//
// Conversions between distinct currencies hit the feed on every call unless a
// cache TTL is configured, in which case the table served is never older than
// the TTL.
type Client struct {
	httpClient *http.Client
	feedURL    string
	cacheTTL   time.Duration

	mu        sync.Mutex
	cached    map[string]decimal.Decimal
	fetchedAt time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithFeedURL overrides the rate feed endpoint.
func WithFeedURL(url string) Option {
	return func(c *Client) {
		c.feedURL = url
	}
}

// WithTimeout bounds the feed round trip. A timed-out fetch is reported as a
// conversion failure, never as a stale or fabricated rate.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithCacheTTL enables serving the previously fetched rate table for up to
// ttl. Zero disables caching: every cross-currency conversion refetches.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a rate client for the CBR daily feed.
func NewClient(options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		feedURL:    DefaultFeedURL,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Ensure Client implements the RateConverter port.
var _ portssvc.RateConverter = (*Client)(nil)

// Convert returns amount expressed in the "to" currency.
//
// The same-currency path returns the amount at 2 decimal places without any
// network access. Cross-currency amounts are routed through RUB: the 2-decimal
// intermediate division and the 3-decimal final scale are both intentional and
// match the upstream quotation rules.
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return amount.Round(2), nil
	}

	rates, err := c.rates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	rubPerFrom, err := unitsPerBase(rates, from)
	if err != nil {
		return decimal.Zero, err
	}
	rubPerTo, err := unitsPerBase(rates, to)
	if err != nil {
		return decimal.Zero, err
	}

	inRubles := amount
	if from != domain.BaseCurrencyCode {
		inRubles = amount.Mul(rubPerFrom)
	}

	result := inRubles
	if to != domain.BaseCurrencyCode {
		result = inRubles.DivRound(rubPerTo, 2)
	}

	return result.Round(3), nil
}

// unitsPerBase returns how many base-currency units one unit of code costs.
func unitsPerBase(rates map[string]decimal.Decimal, code string) (decimal.Decimal, error) {
	if code == domain.BaseCurrencyCode {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := rates[code]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unsupported currency %s", apperrors.ErrConversionFailure, code)
	}
	return rate, nil
}

// rates returns the current rate table, serving the cached copy when it is
// younger than the configured TTL.
func (c *Client) rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cacheTTL > 0 && c.cached != nil && time.Since(c.fetchedAt) < c.cacheTTL {
		return c.cached, nil
	}

	fetched, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if c.cacheTTL > 0 {
		c.cached = fetched
		c.fetchedAt = time.Now()
	}
	return fetched, nil
}

func (c *Client) fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building feed request: %v", apperrors.ErrConversionFailure, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching rate feed: %v", apperrors.ErrConversionFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: rate feed returned status %d", apperrors.ErrConversionFailure, resp.StatusCode)
	}

	rates, err := parseRates(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing rate feed: %v", apperrors.ErrConversionFailure, err)
	}
	return rates, nil
}

// valCurs mirrors the feed document: a list of Valute quotations against RUB.
type valCurs struct {
	XMLName xml.Name `xml:"ValCurs"`
	Valutes []valute `xml:"Valute"`
}

type valute struct {
	CharCode string `xml:"CharCode"`
	Nominal  string `xml:"Nominal"`
	Value    string `xml:"Value"`
}

// parseRates decodes the feed into a code -> rubles-per-unit table.
// The feed quotes Value rubles per Nominal units and uses a comma decimal
// separator; the document itself is windows-1251 encoded.
func parseRates(r io.Reader) (map[string]decimal.Decimal, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "windows-1251":
			return charmap.Windows1251.NewDecoder().Reader(input), nil
		default:
			return input, nil
		}
	}

	var doc valCurs
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}

	rates := make(map[string]decimal.Decimal, len(doc.Valutes))
	for _, v := range doc.Valutes {
		value, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(v.Value), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %v", v.CharCode, err)
		}
		nominal, err := decimal.NewFromString(strings.TrimSpace(v.Nominal))
		if err != nil {
			return nil, fmt.Errorf("invalid nominal for %s: %v", v.CharCode, err)
		}
		if nominal.IsZero() {
			return nil, fmt.Errorf("zero nominal for %s", v.CharCode)
		}
		rates[strings.ToUpper(v.CharCode)] = value.DivRound(nominal, rateScale)
	}

	if len(rates) == 0 {
		return nil, fmt.Errorf("rate table is empty")
	}
	return rates, nil
}
