package warehouse

import (
	"testing"

	"github.com/gear6io/metastore/server/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapePathName(t *testing.T) {
	assert.Equal(t, "2024-01-01", EscapePathName("2024-01-01"))
	assert.Equal(t, "a%2Fb", EscapePathName("a/b"))
	assert.Equal(t, "k%3Dv", EscapePathName("k=v"))
	assert.Equal(t, "12%3A30", EscapePathName("12:30"))
	assert.Equal(t, "100%25", EscapePathName("100%"))
	assert.Equal(t, "tab%09", EscapePathName("tab\t"))
	assert.Equal(t, "naïve", EscapePathName("naïve"))
}

func TestUnescapePathName(t *testing.T) {
	assert.Equal(t, "a/b", UnescapePathName("a%2Fb"))
	assert.Equal(t, "a/b", UnescapePathName("a%2fb"))
	assert.Equal(t, "50%", UnescapePathName("50%"))
	assert.Equal(t, "%zz", UnescapePathName("%zz"))
	assert.Equal(t, "naïve", UnescapePathName("naïve"))
}

func TestMakePartName(t *testing.T) {
	name, err := MakePartName([]string{"DS", "hr"}, []string{"2024-01-01", "12:00"})
	require.NoError(t, err)
	assert.Equal(t, "ds=2024-01-01/hr=12%3A00", name)

	_, err = MakePartName([]string{"ds"}, []string{"a", "b"})
	assert.True(t, types.IsInvalidObject(err))
	_, err = MakePartName(nil, nil)
	assert.True(t, types.IsInvalidObject(err))
	_, err = MakePartName([]string{"ds"}, []string{""})
	assert.True(t, types.IsInvalidObject(err))
}

func TestPartNameRoundTrip(t *testing.T) {
	cases := [][]string{
		{"2024-01-01"},
		{"a/b", "c=d"},
		{"100%", "x y", "#hash"},
		{"naïve", "quote'\"", "[brackets]"},
	}
	for _, vals := range cases {
		keys := make([]string, len(vals))
		for i := range vals {
			keys[i] = string(rune('a' + i))
		}
		name, err := MakePartName(keys, vals)
		require.NoError(t, err)

		spec, err := MakeSpecFromName(name)
		require.NoError(t, err)
		require.Len(t, spec, len(vals))
		for i, e := range spec {
			assert.Equal(t, keys[i], e.Key)
			assert.Equal(t, vals[i], e.Value)
		}
	}
}

func TestMakeSpecFromName(t *testing.T) {
	spec, err := MakeSpecFromName("/ds=2024-01-01/hr=12/")
	require.NoError(t, err)
	v, ok := spec.Get("hr")
	assert.True(t, ok)
	assert.Equal(t, "12", v)
	_, ok = spec.Get("min")
	assert.False(t, ok)

	for _, bad := range []string{"", "ds", "ds=", "=x", "ds=1/ds=2"} {
		_, err := MakeSpecFromName(bad)
		assert.True(t, types.IsInvalidObject(err), bad)
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"/wh/d1", Path{Path: "/wh/d1"}},
		{"file:///wh/d1/", Path{Scheme: "file", Path: "/wh/d1"}},
		{"file:/wh/d1", Path{Scheme: "file", Path: "/wh/d1"}},
		{"S3://bucket", Path{Scheme: "s3", Authority: "bucket", Path: "/"}},
		{"s3a://bucket/k/ds=a%2Fb", Path{Scheme: "s3a", Authority: "bucket", Path: "/k/ds=a%2Fb"}},
		{"rel/x", Path{Path: "rel/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParsePath("s3:relative")
	assert.Error(t, err)
}

func TestPathHelpers(t *testing.T) {
	p, err := ParsePath("s3://bucket/wh/t1")
	require.NoError(t, err)

	assert.Equal(t, "s3://bucket/wh/t1/ds=1/hr=2", p.Join("ds=1/hr=2").String())
	assert.Equal(t, "s3://bucket/wh", p.Parent().String())
	assert.Equal(t, "t1", p.Name())
	assert.True(t, p.Join("ds=1").IsUnder(p))
	assert.False(t, Path{Scheme: "s3", Authority: "bucket", Path: "/wh/t10"}.IsUnder(p))
	assert.True(t, p.IsQualified())
}
