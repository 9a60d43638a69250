package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
)

func mutate(t *testing.T, old, repl string) []byte {
	t.Helper()
	doc := string(DefaultDocument())
	require.Contains(t, doc, old)
	return []byte(strings.Replace(doc, old, repl, 1))
}

func TestDefaultLoads(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, cfg.Version)
	assert.Len(t, cfg.Digest, 64)
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), WeightTolerance)
	for _, c := range category.Order {
		assert.Contains(t, cfg.Weights, c)
	}
	assert.False(t, cfg.Classification.LegacyGaps)
	require.NotNil(t, cfg.Gates.MetallurgyCap)
	assert.Equal(t, 0.30, *cfg.Gates.MetallurgyCap)
}

func TestDigestIsStable(t *testing.T) {
	a, err := Parse(DefaultDocument(), "a")
	require.NoError(t, err)
	b, err := Parse(DefaultDocument(), "b")
	require.NoError(t, err)
	assert.Equal(t, a.Digest, b.Digest)

	c, err := Parse(mutate(t, "version: rules-v2-gated", "version: rules-v3"), "c")
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest, c.Digest)
	assert.Equal(t, "rules-v3", c.Version)
}

func TestVersionDefaultsWhenOmitted(t *testing.T) {
	cfg, err := Parse(mutate(t, "version: rules-v2-gated\n", ""), "t")
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, cfg.Version)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  func(t *testing.T) []byte
	}{
		{"unparseable", func(*testing.T) []byte { return []byte("weights: [") }},
		{"empty", func(*testing.T) []byte { return []byte("") }},
		{"missing weight", func(t *testing.T) []byte { return mutate(t, "  Q: 0.10\n", "") }},
		{"negative weight", func(t *testing.T) []byte { return mutate(t, "  M: 0.20\n", "  M: -0.20\n") }},
		{"weights off by 0.1", func(t *testing.T) []byte { return mutate(t, "  M: 0.20\n", "  M: 0.30\n") }},
		{"missing category", func(t *testing.T) []byte {
			doc := string(DefaultDocument())
			return []byte(doc[:strings.Index(doc, "\nO:\n")+1])
		}},
		{"missing family", func(t *testing.T) []byte { return mutate(t, "  dpdt:\n", "  dpdt_old:\n") }},
		{"unknown field", func(t *testing.T) []byte { return mutate(t, "M:\n", "M:\n  extra: 1\n") }},
		{"out of order", func(t *testing.T) []byte { return mutate(t, "min: 350, pen: 0.40", "min: 200, pen: 0.40") }},
		{"ascending out of order", func(t *testing.T) []byte { return mutate(t, "max: 1000, pen: 0.25", "max: 9000, pen: 0.25") }},
		{"negative penalty", func(t *testing.T) []byte { return mutate(t, "wax: 0.10", "wax: -0.10") }},
		{"bad direction", func(t *testing.T) []byte { return mutate(t, "direction: exceeds", "direction: sideways") }},
		{"overlapping ph", func(t *testing.T) []byte { return mutate(t, "alk: {min: 9.0", "alk: {min: 5.0") }},
		{"duplicate key", func(t *testing.T) []byte { return mutate(t, "      coal_tar: 0.15\n", "      COAL TAR: 0.15\n") }},
		{"gate out of range", func(t *testing.T) []byte { return mutate(t, "metallurgy_cap: 0.30", "metallurgy_cap: 1.30") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.doc(t), "test.yaml")
			require.Error(t, err)
			assert.True(t, IsConfigError(err), "want ConfigError, got %T: %v", err, err)
			assert.Contains(t, err.Error(), "test.yaml")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir() + "/nope.yaml")
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestThresholdDirections(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	hit, ok := cfg.Metallurgy.Hardness.Match(350)
	require.True(t, ok)
	assert.Equal(t, 0.40, hit.Penalty)
	hit, ok = cfg.Metallurgy.Hardness.Match(349.9)
	require.True(t, ok)
	assert.Equal(t, 0.25, hit.Penalty)
	_, ok = cfg.Metallurgy.Hardness.Match(249)
	assert.False(t, ok)

	// exceeds is strict
	hit, ok = cfg.DataQuality.CPSurveyAge.Match(36)
	require.True(t, ok)
	assert.Equal(t, 0.10, hit.Penalty)
	_, ok = cfg.DataQuality.CPSurveyAge.Match(12)
	assert.False(t, ok)

	// ascending is strict
	hit, ok = cfg.Environment.Resistivity.Match(999)
	require.True(t, ok)
	assert.Equal(t, 0.25, hit.Penalty)
	hit, ok = cfg.Environment.Resistivity.Match(1000)
	require.True(t, ok)
	assert.Equal(t, 0.15, hit.Penalty)
	_, ok = cfg.Environment.Resistivity.Match(5000)
	assert.False(t, ok)

	// at_or_below is inclusive
	_, ok = cfg.CoatingCP.PotentialFlr.Match(-1.20)
	assert.True(t, ok)
	_, ok = cfg.CoatingCP.PotentialFlr.Match(-1.19)
	assert.False(t, ok)
}

func TestCyclingNeedsBothSignals(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	hit, ok := cfg.DesignOperations.Cycling.Match(12, 25)
	require.True(t, ok)
	assert.Equal(t, 0.25, hit.Penalty)
	hit, ok = cfg.DesignOperations.Cycling.Match(12, 6)
	require.True(t, ok)
	assert.Equal(t, 0.05, hit.Penalty)
	_, ok = cfg.DesignOperations.Cycling.Match(0.5, 30)
	assert.False(t, ok)
}

func TestCategoricalLookup(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	seam := cfg.Metallurgy.Seam
	require.Len(t, seam.Entries, 3)
	assert.Equal(t, "pre1970", seam.Entries[0].Key)
	e, ok := seam.Lookup("  Vintage  ERW ")
	require.True(t, ok)
	assert.Equal(t, "vintage", e.Key)
	e, ok = seam.Lookup("ERW")
	require.True(t, ok)
	assert.Equal(t, 0.10, e.Penalty)
	_, ok = seam.Lookup("seamless")
	assert.False(t, ok)

	coat := cfg.CoatingCP.CoatingType
	e, ok = coat.Lookup("Coal Tar Enamel")
	require.True(t, ok)
	assert.Equal(t, "coal tar coating", coat.Describe(e))

	mic := cfg.Environment.MIC
	e, ok = mic.Lookup("HIGH")
	require.True(t, ok)
	assert.Equal(t, "HIGH MIC risk", mic.Describe(e))
	_, ok = mic.Lookup("very high")
	assert.False(t, ok)
}

func TestSplitBand(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	b, ok := cfg.Environment.PH.Match(5.5)
	require.True(t, ok)
	assert.Equal(t, 0.15, b.Penalty)
	b, ok = cfg.Environment.PH.Match(9.0)
	require.True(t, ok)
	assert.Equal(t, 0.10, b.Penalty)
	_, ok = cfg.Environment.PH.Match(7)
	assert.False(t, ok)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "coal tar", NormalizeKey("  COAL\tTar "))
	assert.Equal(t, "", NormalizeKey("   "))
	assert.Equal(t, NormalizeKey("CAFE\u0301"), NormalizeKey("caf\u00e9"))
}
