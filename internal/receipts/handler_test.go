package receipts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndDateCoversWholeDay(t *testing.T) {
	end := parseEndDate("2026-01-15")
	require.NotNil(t, end)

	assert.True(t, end.After(time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC)))
	assert.True(t, end.Before(time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)))

	assert.Nil(t, parseEndDate(""))
	assert.Nil(t, parseEndDate("not-a-date"))
}
