// Package query builds and normalizes short Wikidata search queries from AAS
// element names and descriptions.
package query

import (
	"regexp"
	"strings"

	"github.com/c360studio/semlink/aas"
)

// MaxQueryTokens caps the length of a normalized search query.
const MaxQueryTokens = 4

// maxSeedTokens caps the length of heuristic seed queries, which may carry a
// little more context than the loop's normalized queries.
const maxSeedTokens = 6

// stopwords are dropped during tokenization.
var stopwords = map[string]bool{
	"the": true, "of": true, "for": true, "and": true, "a": true, "an": true,
	"to": true, "in": true, "is": true, "are": true, "which": true,
	"this": true, "that": true, "with": true, "as": true, "by": true,
	"on": true, "or": true, "be": true, "it": true, "describing": true,
}

// weakTokens are domain-weak in almost any technical context and are kept
// only when nothing stronger survives.
var weakTokens = map[string]bool{
	"indicator": true, "asset": true, "property": true, "value": true,
	"name": true, "condition": true, "element": true, "data": true,
	"information": true,
}

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	// camelBoundary splits only between lower/digit and upper, so acronyms
	// like "RUL" stay intact.
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// Normalize lowercases a raw query, collapses punctuation and whitespace to
// single spaces, and truncates to MaxQueryTokens tokens. Normalization is
// idempotent; an empty result means no query is available.
func Normalize(raw string) string {
	cleaned := strings.ToLower(raw)
	cleaned = nonAlnum.ReplaceAllString(cleaned, " ")
	tokens := strings.Fields(cleaned)
	if len(tokens) > MaxQueryTokens {
		tokens = tokens[:MaxQueryTokens]
	}
	return strings.Join(tokens, " ")
}

// Tokenize lowercases text, strips punctuation, and drops stopwords and
// tokens shorter than three characters.
func Tokenize(text string) []string {
	cleaned := nonAlnum.ReplaceAllString(strings.ToLower(text), " ")
	var tokens []string
	for _, t := range strings.Fields(cleaned) {
		if len(t) > 2 && !stopwords[t] {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// HumanizeIDShort converts an AAS idShort like "RemainingUsefulLife" or
// "max_rotation-speed" into a space-separated phrase.
func HumanizeIDShort(s string) string {
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = camelBoundary.ReplaceAllString(s, "$1 $2")
	return strings.Join(strings.Fields(s), " ")
}

// SeedQueries derives up to two keyword queries from the context: one from
// the target's label and definition, and one mixing in the owning
// submodel's label for domain grounding. Intermediate parents like
// collections rarely carry signal, so they contribute nothing. Used when
// no generative proposer is available.
func SeedQueries(ctx *aas.Context) []string {
	label := targetLabel(ctx)

	baseParts := []string{}
	if label != "" {
		baseParts = append(baseParts, label)
	}
	if def := targetDefinition(ctx); def != "" {
		baseParts = append(baseParts, def)
	}

	baseTokens := dedupe(Tokenize(strings.Join(baseParts, " ")), nil)

	seen := make(map[string]bool, len(baseTokens))
	for _, t := range baseTokens {
		seen[t] = true
	}
	var submodelTokens []string
	if ctx.Submodel != nil {
		submodelTokens = Tokenize(HumanizeIDShort(ctx.Submodel.IDShort))
	}
	submodelTokens = dedupe(submodelTokens, seen)

	strong := filterWeak(baseTokens)

	var queries []string

	// Q1: strong target tokens only
	q1 := strong
	if len(q1) == 0 {
		q1 = baseTokens
	}
	if len(q1) > maxSeedTokens {
		q1 = q1[:maxSeedTokens]
	}
	if len(q1) > 0 {
		queries = append(queries, strings.Join(q1, " "))
	}

	// Q2: strong target tokens plus submodel tokens
	ctxTokens := filterWeak(submodelTokens)
	if len(ctxTokens) > 0 {
		q2 := dedupe(append(append([]string{}, strong...), ctxTokens...), nil)
		if len(q2) > maxSeedTokens {
			q2 = q2[:maxSeedTokens]
		}
		joined := strings.Join(q2, " ")
		if joined != "" && (len(queries) == 0 || joined != queries[0]) {
			queries = append(queries, joined)
		}
	}

	return queries
}

// targetLabel prefers the concept description's idShort over the element's.
func targetLabel(ctx *aas.Context) string {
	if cd := ctx.Target.ConceptDescription; cd != nil && cd.IDShort != "" {
		return HumanizeIDShort(cd.IDShort)
	}
	return HumanizeIDShort(ctx.Target.IDShort)
}

// targetDefinition prefers the concept description's English definition over
// the element's own description.
func targetDefinition(ctx *aas.Context) string {
	if cd := ctx.Target.ConceptDescription; cd != nil {
		if en := strings.TrimSpace(cd.Descriptions["en"]); en != "" {
			return en
		}
	}
	return strings.TrimSpace(ctx.Target.Descriptions["en"])
}

// dedupe removes duplicates preserving order. When seen is non-nil it also
// filters tokens already present there and records the survivors.
func dedupe(tokens []string, seen map[string]bool) []string {
	if seen == nil {
		seen = make(map[string]bool, len(tokens))
	}
	var out []string
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func filterWeak(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !weakTokens[t] {
			out = append(out, t)
		}
	}
	return out
}
