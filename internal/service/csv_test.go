package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	data := "\xef\xbb\xbfAppID,Name,Release date\n1,Portal,\"Oct 9, 2007\"\n\n2,,2020-01-01\n3\n"
	rows, err := ParseCSV([]byte(data))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 0, rows[0].Index)
	require.NotNil(t, rows[0].Get(ColAppID))
	assert.Equal(t, "1", *rows[0].Get(ColAppID))
	assert.Equal(t, "Oct 9, 2007", *rows[0].Get(ColReleaseDate))

	assert.Equal(t, 1, rows[1].Index)
	assert.Nil(t, rows[1].Get(ColName), "empty cell is absent")

	assert.Equal(t, 2, rows[2].Index)
	assert.Nil(t, rows[2].Get(ColReleaseDate), "missing trailing cell is absent")
	assert.Nil(t, rows[2].Get(ColPrice), "unknown column is absent")
}

func TestParseCSV_Empty(t *testing.T) {
	rows, err := ParseCSV(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = ParseCSV([]byte("AppID,Name\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseCSV_Malformed(t *testing.T) {
	_, err := ParseCSV([]byte("AppID,Name\n1,\"unterminated\n"))
	assert.ErrorIs(t, err, ErrMalformedCSV)
}
