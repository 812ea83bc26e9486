package cbr_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/exception-s/BankApplication/internal/adapters/cbr"
	"github.com/exception-s/BankApplication/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedXML mimics the CBR daily quotation document. Values use the feed's
// comma decimal separator, and CNY demonstrates a non-unit nominal.
const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<ValCurs Date="02.09.2026" name="Foreign Currency Market">
  <Valute ID="R01235">
    <NumCode>840</NumCode>
    <CharCode>USD</CharCode>
    <Nominal>1</Nominal>
    <Name>US Dollar</Name>
    <Value>80,0000</Value>
  </Valute>
  <Valute ID="R01239">
    <NumCode>978</NumCode>
    <CharCode>EUR</CharCode>
    <Nominal>1</Nominal>
    <Name>Euro</Name>
    <Value>90,5000</Value>
  </Valute>
  <Valute ID="R01375">
    <NumCode>156</NumCode>
    <CharCode>CNY</CharCode>
    <Nominal>10</Nominal>
    <Name>Chinese Yuan</Name>
    <Value>110,2500</Value>
  </Valute>
</ValCurs>`

// newFeedServer serves feedXML and counts hits.
func newFeedServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestConvert_SameCurrencyNeverFetches(t *testing.T) {
	server, hits := newFeedServer(t)
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	got, err := client.Convert(context.Background(), decimal.RequireFromString("123.456"), "USD", "USD")

	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("123.46")), "got %s", got)
	assert.EqualValues(t, 0, hits.Load())
}

func TestConvert_ForeignToRubles(t *testing.T) {
	server, _ := newFeedServer(t)
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	got, err := client.Convert(context.Background(), decimal.RequireFromString("10"), "USD", "RUB")

	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("800")), "got %s", got)
}

func TestConvert_RublesToForeign(t *testing.T) {
	server, _ := newFeedServer(t)
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	got, err := client.Convert(context.Background(), decimal.RequireFromString("800"), "RUB", "USD")

	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("10")), "got %s", got)
}

func TestConvert_CrossRateThroughRubles(t *testing.T) {
	server, _ := newFeedServer(t)
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	// 100 USD -> 8000 RUB -> 8000 / 90.5 = 88.40 EUR (intermediate division
	// at 2 decimal places).
	got, err := client.Convert(context.Background(), decimal.RequireFromString("100"), "USD", "EUR")

	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("88.40")), "got %s", got)
}

func TestConvert_NominalDivision(t *testing.T) {
	server, _ := newFeedServer(t)
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	// CNY is quoted as 110.25 rubles per 10 units, so one yuan is 11.025.
	got, err := client.Convert(context.Background(), decimal.RequireFromString("10"), "CNY", "RUB")

	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("110.25")), "got %s", got)
}

func TestConvert_UnknownCurrency(t *testing.T) {
	server, _ := newFeedServer(t)
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	_, err := client.Convert(context.Background(), decimal.RequireFromString("10"), "USD", "XXX")

	require.ErrorIs(t, err, apperrors.ErrConversionFailure)
}

func TestConvert_FeedStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	_, err := client.Convert(context.Background(), decimal.RequireFromString("10"), "USD", "RUB")

	require.ErrorIs(t, err, apperrors.ErrConversionFailure)
}

func TestConvert_FeedUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on
	client := cbr.NewClient(cbr.WithFeedURL(server.URL), cbr.WithTimeout(time.Second))

	_, err := client.Convert(context.Background(), decimal.RequireFromString("10"), "USD", "RUB")

	require.ErrorIs(t, err, apperrors.ErrConversionFailure)
}

func TestConvert_MalformedFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<ValCurs><Valute><CharCode>USD</CharCode><Nominal>1</Nominal><Value>not-a-number</Value></Valute></ValCurs>"))
	}))
	defer server.Close()
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	_, err := client.Convert(context.Background(), decimal.RequireFromString("10"), "USD", "RUB")

	require.ErrorIs(t, err, apperrors.ErrConversionFailure)
}

func TestConvert_EmptyFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<ValCurs Date="02.09.2026"></ValCurs>`))
	}))
	defer server.Close()
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	_, err := client.Convert(context.Background(), decimal.RequireFromString("10"), "USD", "RUB")

	require.ErrorIs(t, err, apperrors.ErrConversionFailure)
}

func TestConvert_NoCachingByDefault(t *testing.T) {
	server, hits := newFeedServer(t)
	client := cbr.NewClient(cbr.WithFeedURL(server.URL))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.Convert(ctx, decimal.RequireFromString("10"), "USD", "RUB")
		require.NoError(t, err)
	}

	assert.EqualValues(t, 3, hits.Load())
}

func TestConvert_CacheTTLServesCachedTable(t *testing.T) {
	server, hits := newFeedServer(t)
	client := cbr.NewClient(cbr.WithFeedURL(server.URL), cbr.WithCacheTTL(time.Minute))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := client.Convert(ctx, decimal.RequireFromString("10"), "USD", "RUB")
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, hits.Load())
}

func TestConvert_CacheExpiryRefetches(t *testing.T) {
	server, hits := newFeedServer(t)
	client := cbr.NewClient(cbr.WithFeedURL(server.URL), cbr.WithCacheTTL(10*time.Millisecond))

	ctx := context.Background()
	_, err := client.Convert(ctx, decimal.RequireFromString("10"), "USD", "RUB")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = client.Convert(ctx, decimal.RequireFromString("10"), "USD", "RUB")
	require.NoError(t, err)

	assert.EqualValues(t, 2, hits.Load())
}
