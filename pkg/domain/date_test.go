package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDate(t *testing.T) {
	d, err := domain.NewDate(2024, time.January, 5)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", d.String())
	assert.Equal(t, "2024-Jan-5", d.Label())

	_, err = domain.NewDate(2025, time.February, 29)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = domain.NewDate(2024, time.February, 29)
	assert.NoError(t, err, "leap day exists in 2024")

	_, err = domain.NewDate(2024, time.April, 31)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestParseDate_Strict(t *testing.T) {
	d, err := domain.ParseDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, domain.Date{Year: 2024, Month: time.March, Day: 9}, d)

	for _, bad := range []string{"2024-Mar-9", "2024-3-9", "09/03/2024", "", "2024-02-30"} {
		_, err := domain.ParseDate(bad)
		assert.ErrorIs(t, err, domain.ErrMalformedDate, "input %q", bad)
	}
}

func TestDate_JSON(t *testing.T) {
	rec := domain.Record{CellGroup: "Bouquet", Date: domain.MustParseDate("2024-01-05"), Name: "Alice", Status: domain.StatusPresent}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cell_group":"Bouquet","date":"2024-01-05","name":"Alice","status":"Present"}`, string(data))

	var zero domain.Session
	require.NoError(t, json.Unmarshal([]byte(`{"chat_id":"1","step":"idle","date":""}`), &zero))
	assert.True(t, zero.Date.IsZero())

	err = json.Unmarshal([]byte(`{"date":"5 Jan 2024"}`), &rec)
	assert.ErrorIs(t, err, domain.ErrMalformedDate)
}

func TestParseStatus(t *testing.T) {
	s, err := domain.ParseStatus("Absent Valid")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAbsentValid, s)

	_, err = domain.ParseStatus("Absent")
	assert.ErrorIs(t, err, domain.ErrUnknownStatus)
}
