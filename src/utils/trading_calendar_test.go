package utils

import (
	"testing"
	"time"

	"smc-analysis/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsForexPair(t *testing.T) {
	assert.True(t, IsForexPair("EURUSD"))
	assert.True(t, IsForexPair("USDJPY"))

	assert.False(t, IsForexPair("AAPL"))
	assert.False(t, IsForexPair("VOD.L"))
	assert.False(t, IsForexPair("eurusd"))
	assert.False(t, IsForexPair("EURUSD1"))
}

// -----------------------------------------------------------------------------

func TestForexCalendarWeekSession(t *testing.T) {
	cal := GetCalendar("EURUSD")
	require.NotNil(t, cal)
	require.True(t, cal.Forex)

	// Wednesday midday
	wed := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	assert.True(t, cal.IsOpenOnMinute(wed))

	// Saturday is always closed
	sat := time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC)
	assert.False(t, cal.IsOpenOnMinute(sat))

	// Sunday opens at 22:00 UTC
	sunEarly := time.Date(2025, 6, 8, 21, 59, 0, 0, time.UTC)
	sunLate := time.Date(2025, 6, 8, 22, 0, 0, 0, time.UTC)
	assert.False(t, cal.IsOpenOnMinute(sunEarly))
	assert.True(t, cal.IsOpenOnMinute(sunLate))

	// Friday closes at 22:00 UTC
	friEarly := time.Date(2025, 6, 6, 21, 59, 0, 0, time.UTC)
	friLate := time.Date(2025, 6, 6, 22, 0, 0, 0, time.UTC)
	assert.True(t, cal.IsOpenOnMinute(friEarly))
	assert.False(t, cal.IsOpenOnMinute(friLate))
}

// -----------------------------------------------------------------------------

func TestForexCalendarTradingDays(t *testing.T) {
	cal := GetCalendar("GBPUSD")
	require.NotNil(t, cal)

	mon := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	sun := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)

	assert.True(t, cal.IsTradingDay(mon))
	assert.False(t, cal.IsTradingDay(sun))
}

// -----------------------------------------------------------------------------

func TestExchangeCalendarLookup(t *testing.T) {
	cal := GetCalendar("VOD.L")
	require.NotNil(t, cal)
	assert.False(t, cal.Forex)
	assert.NotNil(t, cal.Timezone)
}

// -----------------------------------------------------------------------------
// MarketScheduler
// -----------------------------------------------------------------------------

func TestMarketSchedulerMapsSymbols(t *testing.T) {
	ms := NewMarketScheduler([]string{"EURUSD", "GBPUSD"}, logger.NewLogger("ERROR", "test"))

	assert.Len(t, ms.Calendars, 2)
	assert.Contains(t, ms.Calendars, "EURUSD")

	ms.UpdateSymbols([]string{"USDJPY"})
	assert.Len(t, ms.Calendars, 1)
	assert.Contains(t, ms.Calendars, "USDJPY")
}

// -----------------------------------------------------------------------------

func TestMarketSchedulerUnknownSymbolClosed(t *testing.T) {
	ms := NewMarketScheduler([]string{"EURUSD"}, logger.NewLogger("ERROR", "test"))

	assert.False(t, ms.IsSymbolOpen("GBPUSD"))
}

// -----------------------------------------------------------------------------

func TestMarketSchedulerEmpty(t *testing.T) {
	ms := NewMarketScheduler(nil, logger.NewLogger("ERROR", "test"))

	assert.False(t, ms.AnyMarketOpen())
}
