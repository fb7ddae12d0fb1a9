package mediactx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/headers"
	"goa.design/mediaflow/mediactx"
	"goa.design/mediaflow/mferr"
)

// TestCharsetDefaultsWhenContentTypeAbsent covers spec invariant 7's
// "?? default" branch: no Content-Type header at all.
func TestCharsetDefaultsWhenContentTypeAbsent(t *testing.T) {
	ctx := mediactx.NewReaderContext(headers.New())
	got, err := ctx.Charset()
	require.NoError(t, err)
	require.Equal(t, mediactx.DefaultCharset, got)
}

// TestCharsetDefaultsWhenContentTypeHasNoCharsetParam covers the
// "?? default" branch when Content-Type is present but bare.
func TestCharsetDefaultsWhenContentTypeHasNoCharsetParam(t *testing.T) {
	hdrs := headers.New()
	hdrs.Set("Content-Type", "application/json")
	ctx := mediactx.NewReaderContext(hdrs)
	got, err := ctx.Charset()
	require.NoError(t, err)
	require.Equal(t, mediactx.DefaultCharset, got)
}

// TestCharsetResolvesFromContentTypeParam covers the parse(Content-Type)
// branch, lower-casing the result.
func TestCharsetResolvesFromContentTypeParam(t *testing.T) {
	hdrs := headers.New()
	hdrs.Set("Content-Type", "text/plain; charset=UTF-8")
	ctx := mediactx.NewReaderContext(hdrs)
	got, err := ctx.Charset()
	require.NoError(t, err)
	require.Equal(t, "utf-8", got)
}

// TestCharsetInvalidSurfacesAsCharsetInvalid covers invariant 7's error
// path: an unrecognized charset name is reported, not silently defaulted.
func TestCharsetInvalidSurfacesAsCharsetInvalid(t *testing.T) {
	hdrs := headers.New()
	hdrs.Set("Content-Type", "text/plain; charset=klingon-1")
	ctx := mediactx.NewReaderContext(hdrs)
	_, err := ctx.Charset()
	var invalid mferr.CharsetInvalid
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "klingon-1", invalid.Name)
}

// TestCharsetIsCachedAfterFirstCall exercises the memoization path: a
// second call must return the same result without re-resolving.
func TestCharsetIsCachedAfterFirstCall(t *testing.T) {
	hdrs := headers.New()
	hdrs.Set("Content-Type", "text/plain; charset=us-ascii")
	ctx := mediactx.NewReaderContext(hdrs)

	first, err := ctx.Charset()
	require.NoError(t, err)
	second, err := ctx.Charset()
	require.NoError(t, err)
	require.Equal(t, first, second)
}
