package linker

import (
	"fmt"

	"github.com/c360studio/semlink/aas"
	"github.com/c360studio/semlink/wikidata"
)

// Result is the terminal outcome of one linking run.
type Result struct {
	Path           string                `json:"path,omitempty"`
	Query          string                `json:"query"`
	History        []string              `json:"query_history"`
	Action         Action                `json:"action"`
	Reason         string                `json:"reason"`
	SuggestedQuery string                `json:"suggested_query,omitempty"`
	Selected       []Candidate           `json:"selected_entities"`
	Hits           []wikidata.SearchHit  `json:"wikidata_hits,omitempty"`
	SearchNote     string                `json:"search_note,omitempty"`
	Iterations     int                   `json:"iterations"`
	Notes          string                `json:"agent_notes"`
}

// assembleResult packages the terminal loop state. Pure and side-effect
// free; it never fails.
func assembleResult(sem *aas.Context, state *LoopState) *Result {
	selected := state.Decision.Candidates
	if selected == nil {
		selected = []Candidate{}
	}

	r := &Result{
		Query:          state.Query,
		History:        state.History,
		Action:         state.Decision.Action,
		Reason:         state.Decision.Reason,
		SuggestedQuery: state.Decision.SuggestedQuery,
		Selected:       selected,
		Hits:           state.Hits,
		SearchNote:     state.SearchNote,
		Iterations:     state.Iteration,
	}
	if sem != nil {
		r.Path = sem.Path
	}
	r.Notes = fmt.Sprintf(
		"Final action=%s, query='%s', hits=%d, selected=%d, reason='%s'",
		r.Action, r.Query, len(r.Hits), len(r.Selected), r.Reason,
	)
	return r
}
