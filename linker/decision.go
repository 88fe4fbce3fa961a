package linker

import (
	"encoding/json"
	"strings"

	"github.com/c360studio/semlink/llm"
	"github.com/c360studio/semlink/query"
)

// Action is the evaluator's verdict on the current query and hit set.
type Action string

const (
	// ActionSelect accepts one or more candidate entities as matches.
	ActionSelect Action = "select"
	// ActionRefine requests another round with a new query.
	ActionRefine Action = "refine"
	// ActionStop terminates the search without a selection.
	ActionStop Action = "stop"
)

// ParseAction normalizes an action string, defaulting to stop for
// anything unrecognized.
func ParseAction(s string) Action {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionSelect:
		return ActionSelect
	case ActionRefine:
		return ActionRefine
	default:
		return ActionStop
	}
}

// Candidate is a knowledge-base entity proposed as a match, with the
// evaluator's confidence score and rank.
type Candidate struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
}

// Decision is the structured outcome of one evaluation step.
type Decision struct {
	Action         Action      `json:"action"`
	Reason         string      `json:"reason"`
	SuggestedQuery string      `json:"suggested_query"`
	Candidates     []Candidate `json:"candidates"`
}

// MinCandidateScore is the confidence floor for selected candidates.
const MinCandidateScore = 0.5

// disallowedDescriptionTerms marks bibliographic entities that are never
// acceptable candidates, regardless of score.
var disallowedDescriptionTerms = []string{
	"scholarly article",
	"scientific article",
	"journal article",
	"academic paper",
}

// descriptionDisallowed reports whether a candidate description matches
// the bibliographic-entity lexicon.
func descriptionDisallowed(desc string) bool {
	low := strings.ToLower(desc)
	for _, term := range disallowedDescriptionTerms {
		if strings.Contains(low, term) {
			return true
		}
	}
	return false
}

// filterCandidates drops candidates without an id, with a disallowed
// description, or scoring below MinCandidateScore.
func filterCandidates(in []Candidate) []Candidate {
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		if c.ID == "" {
			continue
		}
		if descriptionDisallowed(c.Description) {
			continue
		}
		if c.Score < MinCandidateScore {
			continue
		}
		out = append(out, c)
	}
	return out
}

// rawDecision mirrors the JSON shape required from the evaluation model.
type rawDecision struct {
	Action         string      `json:"action"`
	Reason         string      `json:"reason"`
	SuggestedQuery string      `json:"suggested_query"`
	Candidates     []Candidate `json:"candidates"`
}

// ParseDecision extracts a Decision from raw model output. Output that
// cannot be parsed into the required shape yields a stop decision with a
// diagnostic reason, never an error.
func ParseDecision(content string) Decision {
	extracted := llm.ExtractJSON(content)
	if extracted == "" {
		return Decision{Action: ActionStop, Reason: "invalid decision output"}
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(extracted), &raw); err != nil {
		return Decision{Action: ActionStop, Reason: "invalid decision output"}
	}

	d := Decision{
		Action:         ParseAction(raw.Action),
		Reason:         raw.Reason,
		SuggestedQuery: query.Normalize(raw.SuggestedQuery),
		Candidates:     raw.Candidates,
	}

	// Selection is only meaningful with surviving candidates.
	if d.Action == ActionSelect {
		d.Candidates = filterCandidates(d.Candidates)
		if len(d.Candidates) == 0 {
			d.Action = ActionRefine
			d.Reason = appendReason(d.Reason, "no non-article candidates above score threshold; refine query")
		}
	} else {
		d.Candidates = nil
	}

	return d
}

// appendReason joins diagnostic fragments onto an existing reason.
func appendReason(reason, extra string) string {
	if reason == "" {
		return extra
	}
	return reason + " | " + extra
}
