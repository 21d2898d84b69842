package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemas_AreValidAndComplete(t *testing.T) {
	for _, c := range SyncOrder {
		s, err := SchemaFor(c)
		require.NoError(t, err, c)
		assert.NoError(t, s.Validate(), c)
		assert.Equal(t, c, s.Collection)
	}
	assert.Len(t, Schemas, len(SyncOrder))
}

func TestSchema_ValidateRejectsCollisions(t *testing.T) {
	tests := []struct {
		name   string
		fields []FieldSpec
	}{
		{name: "duplicate local", fields: []FieldSpec{{Local: "a", Remote: "a", Kind: KindString}, {Local: "a", Remote: "b", Kind: KindString}}},
		{name: "duplicate remote", fields: []FieldSpec{{Local: "a", Remote: "x", Kind: KindString}, {Local: "b", Remote: "x", Kind: KindString}}},
		{name: "reserved owner", fields: []FieldSpec{{Local: "o", Remote: ColumnOwner, Kind: KindString}}},
		{name: "reserved timestamp", fields: []FieldSpec{{Local: "t", Remote: ColumnTimestamp, Kind: KindString}}},
		{name: "undeclared path field", fields: []FieldSpec{{Local: "b", Remote: "b", Kind: KindBlob, PathField: "missing"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Schema{Collection: "test", Fields: tt.fields}
			assert.Error(t, s.Validate())
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	v, err := NormalizeValue(KindNumber, 42)
	require.NoError(t, err)
	assert.Equal(t, float64(42), v)

	v, err = NormalizeValue(KindBlobList, []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)

	v, err = NormalizeValue(KindRef, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = NormalizeValue(KindBool, "yes")
	assert.ErrorIs(t, err, ErrInvalidFieldValue)

	_, err = NormalizeValue(KindStringList, []any{"a", 1})
	assert.ErrorIs(t, err, ErrInvalidFieldValue)
}

func TestSchema_NormalizeMovesUnknownToExtra(t *testing.T) {
	s, err := SchemaFor(Folders)
	require.NoError(t, err)

	r := NewRecord(Folders, "f1")
	r.Fields["name"] = "Trips"
	r.Fields["sortOrder"] = 3

	out, err := s.Normalize(r)
	require.NoError(t, err)

	assert.Equal(t, "Trips", out.Fields["name"])
	assert.NotContains(t, out.Fields, "sortOrder")
	assert.Equal(t, 3, out.Extra["sortOrder"])
	// исходная запись не меняется
	assert.Contains(t, r.Fields, "sortOrder")
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r := NewRecord(Posts, "p1")
	r.Fields["images"] = []string{"a"}

	c := r.Clone()
	c.Fields["images"].([]string)[0] = "b"
	c.Fields["caption"] = "x"

	assert.Equal(t, []string{"a"}, r.Fields["images"])
	assert.NotContains(t, r.Fields, "caption")
}

func TestTimestamp_RoundTripMillis(t *testing.T) {
	for _, ms := range []int64{0, 1, 1718000000123, 1718000000999} {
		s := FormatTimestamp(ms)
		back, err := ParseTimestamp(s)
		require.NoError(t, err)
		assert.Equal(t, ms, back, s)
	}

	assert.Equal(t, "2024-06-10T06:13:20.123Z", FormatTimestamp(1718000000123))

	ms, err := ParseTimestamp("2024-06-10T08:13:20.123+02:00")
	require.NoError(t, err)
	assert.Equal(t, int64(1718000000123), ms)

	_, err = ParseTimestamp("yesterday")
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestParseCollection(t *testing.T) {
	c, err := ParseCollection("generation_history")
	require.NoError(t, err)
	assert.Equal(t, History, c)

	_, err = ParseCollection("users")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}
