package mediaio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTS_SRTIsUnsupported(t *testing.T) {
	_, err := OpenTS(context.Background(), "srt://example.com:1234")
	require.Error(t, err)
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, OpenUnsupported, openErr.Kind)
}

func TestOpenTS_FileNotFound(t *testing.T) {
	_, err := OpenTS(context.Background(), "file:///nonexistent/path/stream.ts")
	require.Error(t, err)
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, OpenNotFound, openErr.Kind)
}

func TestOpenTS_UnknownScheme(t *testing.T) {
	_, err := OpenTS(context.Background(), "ftp://example.com/stream.ts")
	require.Error(t, err)
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, OpenUnsupported, openErr.Kind)
}
