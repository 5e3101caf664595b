package remote

import (
	"errors"
	"testing"

	"smc-analysis/src/logger"
	"smc-analysis/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetwork struct {
	responses map[string][]byte
	err       error
	lastURL   string
	lastParam map[string]string
}

func (f *fakeNetwork) Get(url string, params map[string]string) ([]byte, error) {
	f.lastURL = url
	f.lastParam = params
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[url], nil
}

func testRemoteConfig() *models.MConfig {
	return &models.MConfig{
		Feed: models.MFeedConfig{
			Type:                "remote",
			Endpoint:            "http://feed.example.com",
			Symbols:             []string{"EURUSD", "GBPUSD"},
			HistoryCandles:      50,
			TickIntervalSeconds: 5,
		},
	}
}

// -----------------------------------------------------------------------------

func TestFetchInitialData(t *testing.T) {
	nm := &fakeNetwork{responses: map[string][]byte{
		"http://feed.example.com/history": []byte(`{
			"history": {
				"EURUSD": [
					{"price": 1.10, "volume": 1000, "timestamp": 100},
					{"price": 1.21, "volume": 2000, "timestamp": 105}
				]
			}
		}`),
	}}

	src := NewRemoteSource(testRemoteConfig(), nm, logger.NewLogger("ERROR", "test"))

	data, err := src.FetchInitialData()
	require.NoError(t, err)
	require.Contains(t, data, "EURUSD")

	ticks := data["EURUSD"]
	require.Len(t, ticks, 2)

	// Symbol filled from the history key when the quote omits it
	assert.Equal(t, "EURUSD", ticks[0].Symbol)
	assert.Equal(t, 1.10, ticks[0].Price)
	// Second tick changes relative to the first
	assert.InDelta(t, (1.21-1.10)/1.10, ticks[1].PricePercentChange, 1e-9)

	assert.Equal(t, "EURUSD,GBPUSD", nm.lastParam["symbols"])
	assert.Equal(t, "50", nm.lastParam["limit"])
}

// -----------------------------------------------------------------------------

func TestFetchInitialDataErrors(t *testing.T) {
	src := NewRemoteSource(testRemoteConfig(), &fakeNetwork{err: errors.New("boom")}, logger.NewLogger("ERROR", "test"))
	_, err := src.FetchInitialData()
	assert.Error(t, err)

	src = NewRemoteSource(testRemoteConfig(), &fakeNetwork{responses: map[string][]byte{
		"http://feed.example.com/history": []byte("not json"),
	}}, logger.NewLogger("ERROR", "test"))
	_, err = src.FetchInitialData()
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestFetchQuotes(t *testing.T) {
	nm := &fakeNetwork{responses: map[string][]byte{
		"http://feed.example.com/quotes": []byte(`{
			"quotes": [
				{"symbol": "EURUSD", "price": 1.12, "volume": 1500, "timestamp": 200},
				{"symbol": "", "price": 9.99, "volume": 1, "timestamp": 200}
			]
		}`),
	}}

	src := NewRemoteSource(testRemoteConfig(), nm, logger.NewLogger("ERROR", "test"))

	batch, err := src.fetchQuotes()
	require.NoError(t, err)

	// Quotes without a symbol are dropped
	require.Len(t, batch, 1)
	require.Len(t, batch["EURUSD"], 1)
	assert.Equal(t, 1.12, batch["EURUSD"][0].Price)
}

// -----------------------------------------------------------------------------

func TestUpdateSymbols(t *testing.T) {
	nm := &fakeNetwork{responses: map[string][]byte{
		"http://feed.example.com/quotes": []byte(`{"quotes": []}`),
	}}
	src := NewRemoteSource(testRemoteConfig(), nm, logger.NewLogger("ERROR", "test"))

	require.NoError(t, src.UpdateSymbols([]string{"USDJPY"}))

	_, err := src.fetchQuotes()
	require.NoError(t, err)
	assert.Equal(t, "USDJPY", nm.lastParam["symbols"])
}

// -----------------------------------------------------------------------------

func TestSourceMetadata(t *testing.T) {
	src := NewRemoteSource(testRemoteConfig(), &fakeNetwork{}, logger.NewLogger("ERROR", "test"))

	assert.Equal(t, "remote", src.Name())
	assert.True(t, src.IsRealTime())
}
