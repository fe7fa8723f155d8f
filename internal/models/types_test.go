package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-03-06")
	require.NoError(t, err)
	assert.Equal(t, ExchangeZone, d.Location())
	assert.Equal(t, time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC), d.UTC())

	d, err = ParseDay("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDay("2024/03/06")
	assert.Error(t, err)
}

func TestToday(t *testing.T) {
	newYork := time.FixedZone("EST", -5*3600)
	evening := time.Date(2024, 3, 5, 21, 0, 0, 0, newYork)
	assert.Equal(t, "2024-03-06", Today(evening).Format(DateLayout))

	afterMidnight := time.Date(2024, 3, 6, 0, 30, 0, 0, ExchangeZone)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, ExchangeZone), Today(afterMidnight))
}
