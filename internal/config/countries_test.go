package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedRegistry(t *testing.T) {
	reg, err := LoadRegistry("")
	require.NoError(t, err)

	assert.Equal(t, []string{"Canada", "Ireland", "Portugal", "United Arab Emirates", "Germany"}, reg.Names())

	de, ok := reg.Lookup("Germany")
	require.True(t, ok)
	assert.Contains(t, de.SearchURL, "germany-data-analyst-jobs")
	assert.Contains(t, de.RemoteURL, "germany-remote-data-analyst-jobs")
	assert.GreaterOrEqual(t, de.FallbackRemoteRatio, 0.0)
	assert.LessOrEqual(t, de.FallbackRemoteRatio, 1.0)
}

func TestRegistryCountriesIsACopy(t *testing.T) {
	reg, err := LoadRegistry("")
	require.NoError(t, err)

	list := reg.Countries()
	list[0].Name = "Mutated"

	assert.Equal(t, "Canada", reg.Countries()[0].Name)
}

func TestRegistryOnly(t *testing.T) {
	reg, err := LoadRegistry("")
	require.NoError(t, err)

	one, err := reg.Only("Ireland")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ireland"}, one.Names())

	_, err = reg.Only("Atlantis")
	assert.ErrorContains(t, err, "unknown country")
}

func TestParseRegistryValidation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "empty",
			doc:     "countries: []\n",
			wantErr: "empty",
		},
		{
			name: "missing fallback count",
			doc: `countries:
  - name: Canada
    search_url: https://example.com/a
    remote_url: https://example.com/b
    fallback_remote_ratio: 0.2
`,
			wantErr: "fallback_average_count is required",
		},
		{
			name: "ratio out of range",
			doc: `countries:
  - name: Canada
    search_url: https://example.com/a
    remote_url: https://example.com/b
    fallback_average_count: 10
    fallback_remote_ratio: 1.5
`,
			wantErr: "outside [0,1]",
		},
		{
			name: "relative url",
			doc: `countries:
  - name: Canada
    search_url: /Job/canada.htm
    remote_url: https://example.com/b
    fallback_average_count: 10
    fallback_remote_ratio: 0.5
`,
			wantErr: "search_url",
		},
		{
			name: "duplicate",
			doc: `countries:
  - name: Canada
    search_url: https://example.com/a
    remote_url: https://example.com/b
    fallback_average_count: 10
    fallback_remote_ratio: 0.5
  - name: Canada
    search_url: https://example.com/a
    remote_url: https://example.com/b
    fallback_average_count: 10
    fallback_remote_ratio: 0.5
`,
			wantErr: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRegistryAcceptsZeroFallbacks(t *testing.T) {
	reg, err := ParseRegistry([]byte(`countries:
  - name: Iceland
    search_url: https://example.com/a
    remote_url: https://example.com/b
    fallback_average_count: 0
    fallback_remote_ratio: 0
`))
	require.NoError(t, err)
	cc, ok := reg.Lookup("Iceland")
	require.True(t, ok)
	assert.Equal(t, 0, cc.FallbackAverageCount)
}
