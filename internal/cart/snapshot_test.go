package cart

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot_Versioned(t *testing.T) {
	state := Fold(nil, AddItem{Item: book("1", "A", "B", 10), Quantity: 2})
	raw, err := json.Marshal(NewSnapshot(state))
	require.NoError(t, err)

	got, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestDecodeSnapshot_LegacyArray(t *testing.T) {
	raw := `[{"lineId":"a-b","catalogId":"1","item":{"id":"1","title":"A","author":"B","price":10},"quantity":2}]`

	got, err := DecodeSnapshot([]byte(raw))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Quantity)
}

func TestDecodeSnapshot_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":          "  ",
		"garbage":        "not json",
		"future version": `{"version":2,"items":[]}`,
		"no version":     `{"items":[]}`,
		"scalar":         `42`,
		"broken object":  `{"version":1,"items":`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestDecodeSnapshot_UnsupportedSentinel(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"version":7}`))
	assert.True(t, errors.Is(err, ErrUnsupportedSnapshot))
}
