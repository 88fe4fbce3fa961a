package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/semlink/aas"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already normal", "remaining useful life", "remaining useful life"},
		{"uppercase and punctuation", "Remaining Useful-Life!", "remaining useful life"},
		{"truncates to four tokens", "one two three four five six", "one two three four"},
		{"collapses whitespace", "  pump \t pressure  ", "pump pressure"},
		{"empty", "", ""},
		{"punctuation only", "---!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalization must be idempotent")
			assert.LessOrEqual(t, len(strings.Fields(got)), MaxQueryTokens)
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The remaining useful life of an asset, which is a duration.")
	assert.Equal(t, []string{"remaining", "useful", "life", "asset", "duration"}, got)

	assert.Nil(t, Tokenize("of the a an"))
	assert.Nil(t, Tokenize("ab x y"), "tokens shorter than three characters are dropped")
}

func TestHumanizeIDShort(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RemainingUsefulLife", "Remaining Useful Life"},
		{"max_rotation-speed", "max rotation speed"},
		{"RULPrediction", "RULPrediction"},
		{"timeToRUL", "time To RUL"},
		{"Pressure", "Pressure"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanizeIDShort(tt.in), tt.in)
	}
}

func TestSeedQueries_TargetOnly(t *testing.T) {
	ctx := &aas.Context{
		Target: aas.TargetNode{
			IDShort:      "RemainingUsefulLife",
			Descriptions: map[string]string{"en": "Estimated remaining operating duration"},
		},
	}

	queries := SeedQueries(ctx)
	assert.NotEmpty(t, queries)
	assert.Equal(t, "remaining useful life estimated operating duration", queries[0])
}

func TestSeedQueries_SubmodelContext(t *testing.T) {
	ctx := &aas.Context{
		Submodel: &aas.SubmodelBlock{IDShort: "HydraulicPump"},
		Target:   aas.TargetNode{IDShort: "Pressure"},
	}

	queries := SeedQueries(ctx)
	assert.Len(t, queries, 2)
	assert.Equal(t, "pressure", queries[0])
	assert.Equal(t, "pressure hydraulic pump", queries[1])
}

func TestSeedQueries_ParentChainIgnored(t *testing.T) {
	// Only the owning submodel grounds the second seed; intermediate
	// collections contribute nothing.
	ctx := &aas.Context{
		Submodel: &aas.SubmodelBlock{IDShort: "HydraulicPump"},
		Target:   aas.TargetNode{IDShort: "Pressure"},
		ParentChain: []aas.ParentNode{
			{IDShort: "OperatingData"},
			{IDShort: "SensorReadings"},
		},
	}

	queries := SeedQueries(ctx)
	assert.Len(t, queries, 2)
	assert.Equal(t, "pressure hydraulic pump", queries[1])
	for _, q := range queries {
		assert.NotContains(t, q, "operating")
		assert.NotContains(t, q, "sensor")
	}
}

func TestSeedQueries_PrefersConceptDescription(t *testing.T) {
	ctx := &aas.Context{
		Target: aas.TargetNode{
			IDShort:      "Prop1",
			Descriptions: map[string]string{"en": "opaque"},
			ConceptDescription: &aas.ConceptDescription{
				IDShort:      "RotationSpeed",
				Descriptions: map[string]string{"en": "Rotational frequency of the shaft"},
			},
		},
	}

	queries := SeedQueries(ctx)
	assert.NotEmpty(t, queries)
	assert.Contains(t, queries[0], "rotation speed")
	assert.NotContains(t, queries[0], "opaque")
}

func TestSeedQueries_WeakTokensKeptOnlyAsFallback(t *testing.T) {
	// A target made of nothing but weak tokens still produces a query.
	ctx := &aas.Context{
		Target: aas.TargetNode{IDShort: "AssetCondition"},
	}
	queries := SeedQueries(ctx)
	assert.Equal(t, []string{"asset condition"}, queries)
}

func TestSeedQueries_EmptyContext(t *testing.T) {
	assert.Empty(t, SeedQueries(&aas.Context{}))
}
