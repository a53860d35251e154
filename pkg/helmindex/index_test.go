package helmindex_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/indexstamp/pkg/helmindex"
	"github.com/macropower/indexstamp/pkg/indexerrors"
)

const testIndex = `apiVersion: v1
entries:
  # Released charts.
  ingress-azure:
    - apiVersion: v1
      appVersion: v1.3.9
      created: "2024-05-01T10:00:00Z"
      name: ingress-azure
      urls:
        - https://example.com/ingress-azure-v1.4.0.tgz
      version: v1.4.0
    - apiVersion: v1
      appVersion: v1.3.9
      name: ingress-azure
      version: v1.3.9
  other-chart:
    - appVersion: "1.0"
      version: v1.4.0
generated: "2024-05-01T10:00:00Z"
`

func mustParse(t *testing.T, data string) *helmindex.Index {
	t.Helper()

	idx, err := helmindex.Parse([]byte(data))
	require.NoError(t, err)

	return idx
}

func records(t *testing.T, idx *helmindex.Index, chart string) []helmindex.Record {
	t.Helper()

	rs, err := idx.Records(chart)
	require.NoError(t, err)

	return rs
}

func TestSetAppVersion(t *testing.T) {
	t.Parallel()

	idx := mustParse(t, testIndex)

	n, ok, err := idx.SetAppVersion(helmindex.DefaultChart, "v1.4.0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, n)

	assert.Equal(t, []helmindex.Record{
		{Version: "v1.4.0", AppVersion: "v1.4.0", HasAppVersion: true},
		{Version: "v1.3.9", AppVersion: "v1.3.9", HasAppVersion: true},
	}, records(t, idx, helmindex.DefaultChart))

	// Other charts are never touched.
	assert.Equal(t, []helmindex.Record{
		{Version: "v1.4.0", AppVersion: "1.0", HasAppVersion: true},
	}, records(t, idx, "other-chart"))
}

func TestSetAppVersionIdempotent(t *testing.T) {
	t.Parallel()

	idx := mustParse(t, strings.Replace(testIndex, "  # Released charts.\n", "", 1))

	_, ok, err := idx.SetAppVersion(helmindex.DefaultChart, "v1.4.0")
	require.NoError(t, err)
	require.True(t, ok)

	first, err := idx.Bytes()
	require.NoError(t, err)

	again := mustParse(t, string(first))
	_, ok, err = again.SetAppVersion(helmindex.DefaultChart, "v1.4.0")
	require.NoError(t, err)
	require.True(t, ok)

	second, err := again.Bytes()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestSetAppVersionFirstMatch(t *testing.T) {
	t.Parallel()

	idx := mustParse(t, `entries:
  ingress-azure:
    - version: v2.0.0
      appVersion: old-a
    - version: v2.0.0
      appVersion: old-b
`)

	n, ok, err := idx.SetAppVersion(helmindex.DefaultChart, "v2.0.0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, n)

	assert.Equal(t, []helmindex.Record{
		{Version: "v2.0.0", AppVersion: "v2.0.0", HasAppVersion: true},
		{Version: "v2.0.0", AppVersion: "old-b", HasAppVersion: true},
	}, records(t, idx, helmindex.DefaultChart))
}

func TestSetAppVersionNoMatch(t *testing.T) {
	t.Parallel()

	idx := mustParse(t, testIndex)
	before := records(t, idx, helmindex.DefaultChart)

	n, ok, err := idx.SetAppVersion(helmindex.DefaultChart, "v9.9.9")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, -1, n)
	assert.Equal(t, before, records(t, idx, helmindex.DefaultChart))
}

func TestSetAppVersionAddsMissingField(t *testing.T) {
	t.Parallel()

	idx := mustParse(t, `entries:
  ingress-azure:
    - version: v1.4.0
`)

	_, ok, err := idx.SetAppVersion(helmindex.DefaultChart, "v1.4.0")
	require.NoError(t, err)
	require.True(t, ok)

	out, err := idx.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "appVersion: v1.4.0")

	assert.Equal(t, []helmindex.Record{
		{Version: "v1.4.0", AppVersion: "v1.4.0", HasAppVersion: true},
	}, records(t, mustParse(t, string(out)), helmindex.DefaultChart))
}

func TestSetAppVersionQuotesAmbiguousScalars(t *testing.T) {
	t.Parallel()

	idx := mustParse(t, `entries:
  ingress-azure:
    - version: "1.10"
      appVersion: "1.9"
`)

	_, ok, err := idx.SetAppVersion(helmindex.DefaultChart, "1.10")
	require.NoError(t, err)
	require.True(t, ok)

	out, err := idx.Bytes()
	require.NoError(t, err)

	again := mustParse(t, string(out))
	assert.Equal(t, []helmindex.Record{
		{Version: "1.10", AppVersion: "1.10", HasAppVersion: true},
	}, records(t, again, helmindex.DefaultChart))
}

func TestBytesKeepsComments(t *testing.T) {
	t.Parallel()

	idx := mustParse(t, testIndex)

	_, _, err := idx.SetAppVersion(helmindex.DefaultChart, "v1.4.0")
	require.NoError(t, err)

	out, err := idx.Bytes()
	require.NoError(t, err)

	assert.Contains(t, string(out), "# Released charts.")
	assert.Contains(t, string(out), `created: "2024-05-01T10:00:00Z"`)
	assert.Contains(t, string(out), "https://example.com/ingress-azure-v1.4.0.tgz")
}

func TestIndexErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err   error
		input string
		chart string
	}{
		"missing chart": {
			input: testIndex,
			chart: "nginx",
			err:   helmindex.ErrChartNotFound,
		},
		"missing entries": {
			input: "apiVersion: v1\n",
			chart: helmindex.DefaultChart,
			err:   indexerrors.ErrInvalidFormat,
		},
		"entries not a mapping": {
			input: "entries: []\n",
			chart: helmindex.DefaultChart,
			err:   indexerrors.ErrInvalidFormat,
		},
		"chart not a sequence": {
			input: "entries:\n  ingress-azure: {}\n",
			chart: helmindex.DefaultChart,
			err:   indexerrors.ErrInvalidFormat,
		},
		"record not a mapping": {
			input: "entries:\n  ingress-azure:\n    - v1.4.0\n",
			chart: helmindex.DefaultChart,
			err:   indexerrors.ErrInvalidFormat,
		},
		"record without version": {
			input: "entries:\n  ingress-azure:\n    - appVersion: v1\n",
			chart: helmindex.DefaultChart,
			err:   indexerrors.ErrInvalidFormat,
		},
	}
	for name, tc := range tcs {
		tc := tc

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			idx := mustParse(t, tc.input)

			_, ok, err := idx.SetAppVersion(tc.chart, "v1.4.0")
			require.ErrorIs(t, err, tc.err)
			assert.False(t, ok)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err   error
		input string
	}{
		"empty": {
			input: "",
			err:   indexerrors.ErrInvalidFormat,
		},
		"scalar document": {
			input: "just a string\n",
			err:   indexerrors.ErrInvalidFormat,
		},
		"malformed": {
			input: "entries: [unterminated\n",
			err:   indexerrors.ErrYAMLUnmarshal,
		},
		"multiple documents": {
			input: "entries: {ingress-azure: [{version: v1.4.0, appVersion: old}]}\n---\nsecond: document\n",
			err:   indexerrors.ErrInvalidFormat,
		},
		"malformed second document": {
			input: "entries: {}\n---\nsecond: [\n",
			err:   indexerrors.ErrInvalidFormat,
		},
	}
	for name, tc := range tcs {
		tc := tc

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := helmindex.Parse([]byte(tc.input))
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestAliasedRecords(t *testing.T) {
	t.Parallel()

	idx := mustParse(t, `base: &release
  version: v1.4.0
  appVersion: v1.3.9
entries:
  ingress-azure:
    - *release
`)

	_, ok, err := idx.SetAppVersion(helmindex.DefaultChart, "v1.4.0")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []helmindex.Record{
		{Version: "v1.4.0", AppVersion: "v1.4.0", HasAppVersion: true},
	}, records(t, idx, helmindex.DefaultChart))
}

func TestMergeKeys(t *testing.T) {
	t.Parallel()

	idx := mustParse(t, `base: &base
  name: ingress-azure
  version: v1.4.0
  appVersion: v1.3.9
entries:
  ingress-azure:
    - <<: *base
      urls:
        - https://example.com/ingress-azure-v1.4.0.tgz
    - <<: [*base]
      version: v1.3.9
`)

	assert.Equal(t, []helmindex.Record{
		{Version: "v1.4.0", AppVersion: "v1.3.9", HasAppVersion: true},
		{Version: "v1.3.9", AppVersion: "v1.3.9", HasAppVersion: true},
	}, records(t, idx, helmindex.DefaultChart))

	n, ok, err := idx.SetAppVersion(helmindex.DefaultChart, "v1.4.0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, n)

	out, err := idx.Bytes()
	require.NoError(t, err)

	// The stamped record overrides the merged value; the anchor is untouched.
	again := mustParse(t, string(out))
	assert.Equal(t, []helmindex.Record{
		{Version: "v1.4.0", AppVersion: "v1.4.0", HasAppVersion: true},
		{Version: "v1.3.9", AppVersion: "v1.3.9", HasAppVersion: true},
	}, records(t, again, helmindex.DefaultChart))
	assert.Contains(t, string(out), "  appVersion: v1.3.9\n")
}
