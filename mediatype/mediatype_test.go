package mediatype_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/mediaflow/mediatype"
)

func TestParseSplitsTypeSubtypeAndParameters(t *testing.T) {
	mt, err := mediatype.Parse("application/json; charset=utf-8")
	require.NoError(t, err)
	require.Equal(t, "application", mt.Type)
	require.Equal(t, "json", mt.Subtype)
	c, ok := mt.Charset()
	require.True(t, ok)
	require.Equal(t, "utf-8", c)
}

func TestParseRejectsMissingSubtype(t *testing.T) {
	_, err := mediatype.Parse("application")
	require.Error(t, err)
}

func TestTestHonorsWildcardOnEitherSide(t *testing.T) {
	wildcard := mediatype.MustParse("application/*")
	json := mediatype.MustParse("application/json")
	require.True(t, wildcard.Test(json))
	require.True(t, json.Test(wildcard))
}

func TestTestRejectsMismatchedType(t *testing.T) {
	json := mediatype.MustParse("application/json")
	text := mediatype.MustParse("text/json")
	require.False(t, json.Test(text))
}

func TestIsWildcardDetectsEitherComponent(t *testing.T) {
	require.True(t, mediatype.MustParse("*/*").IsWildcard())
	require.True(t, mediatype.MustParse("application/*").IsWildcard())
	require.False(t, mediatype.MustParse("application/json").IsWildcard())
}

func TestStringRendersParametersSorted(t *testing.T) {
	mt := mediatype.New("text", "plain", map[string]string{"boundary": "b", "charset": "utf-8"})
	require.Equal(t, "text/plain; boundary=b; charset=utf-8", mt.String())
}
