package dbx

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableHelpers(t *testing.T) {
	assert.Nil(t, StringPtr(sql.NullString{}))
	assert.Equal(t, "x", *StringPtr(sql.NullString{String: "x", Valid: true}))

	now := time.Now()
	assert.Nil(t, TimePtr(sql.NullTime{}))
	assert.True(t, TimePtr(sql.NullTime{Time: now, Valid: true}).Equal(now))

	assert.Nil(t, IntPtr(sql.NullInt64{}))
	assert.Equal(t, 4, *IntPtr(sql.NullInt64{Int64: 4, Valid: true}))
}

func TestJSONStrings(t *testing.T) {
	assert.Equal(t, "[]", JSONStrings(nil))
	assert.Equal(t, `["labor","traffic"]`, JSONStrings([]string{"labor", "traffic"}))

	got, err := ParseJSONStrings([]byte(`["labor"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"labor"}, got)

	got, err = ParseJSONStrings(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseJSONStrings([]byte(`{`))
	assert.Error(t, err)

	assert.Equal(t, "{}", JSONOrEmpty(nil, "{}"))
	assert.Equal(t, `{"a":1}`, JSONOrEmpty([]byte(`{"a":1}`), "{}"))
}
