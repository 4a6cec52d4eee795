package dbtypes

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUUIDListRoundTrip(t *testing.T) {
	ids := UUIDList{uuid.New(), uuid.New()}
	value, err := ids.Value()
	require.NoError(t, err)

	var scanned UUIDList
	require.NoError(t, scanned.Scan(value))
	require.Equal(t, ids, scanned)
	require.Len(t, scanned.Strings(), 2)
}

func TestUUIDListEmptyForms(t *testing.T) {
	value, err := UUIDList(nil).Value()
	require.NoError(t, err)
	require.Equal(t, "[]", value)

	for _, src := range []any{nil, "", "[]", []byte("null")} {
		var l UUIDList
		require.NoError(t, l.Scan(src))
		require.Empty(t, l)
	}
}

func TestUUIDListRejectsGarbage(t *testing.T) {
	var l UUIDList
	require.Error(t, l.Scan("[\"not-a-uuid\"]"))
	require.Error(t, l.Scan(42))
}
