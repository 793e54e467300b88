package job

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawOf(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestParameter_Effective(t *testing.T) {
	t.Run("value wins over default", func(t *testing.T) {
		p := Parameter{ID: "x", Type: TypeString, Default: rawOf(t, "d"), Value: rawOf(t, "v")}
		assert.Equal(t, json.RawMessage(`"v"`), p.effective())
	})

	t.Run("falls back to default when value absent", func(t *testing.T) {
		p := Parameter{ID: "x", Type: TypeString, Default: rawOf(t, "d")}
		assert.Equal(t, json.RawMessage(`"d"`), p.effective())
	})

	t.Run("null value falls back to default", func(t *testing.T) {
		p := Parameter{ID: "x", Type: TypeString, Default: rawOf(t, "d"), Value: json.RawMessage("null")}
		assert.Equal(t, json.RawMessage(`"d"`), p.effective())
	})

	t.Run("neither value nor default", func(t *testing.T) {
		p := Parameter{ID: "x", Type: TypeString}
		assert.Nil(t, p.effective())
	})
}

func TestMediaSegment_Validate(t *testing.T) {
	assert.NoError(t, MediaSegment{Start: 0, End: 10}.Validate())
	assert.NoError(t, MediaSegment{Start: 5, End: 5}.Validate())

	err := MediaSegment{Start: 10, End: 5}.Validate()
	require.Error(t, err)
	var pErr *ParameterError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, ParameterDecodeFailed, pErr.Kind)
}
