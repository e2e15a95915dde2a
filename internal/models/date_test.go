package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2026-02-28T00:00:00.000Z","end":null}`), &payload))
	assert.Equal(t, Date{Year: 2026, Month: time.February, Day: 28}, payload.Start)
	assert.Nil(t, payload.End)

	out, err := json.Marshal(payload.Start)
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-02-28"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"28/02/2026"}`), &payload))
}

func TestDate_Arithmetic(t *testing.T) {
	d := Date{Year: 2026, Month: time.February, Day: 28}
	assert.Equal(t, "2026-03-02", d.AddDays(2).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.Before(d))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-12-31", d.String())
	require.NoError(t, d.Scan([]byte("2024-01-05")))
	assert.Equal(t, "2024-01-05", d.String())
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))

	value, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}
