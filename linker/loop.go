// Package linker implements the iterative search-refine-evaluate loop that
// links AAS elements to Wikidata entities.
//
// The Controller runs an explicit state machine:
//
//	ProposeQuery -> Search -> Evaluate -> {ProposeQuery | Terminate}
//
// Each round proposes one normalized query, searches the knowledge base,
// and evaluates the hits. Hard overrides applied after each evaluation
// guarantee the loop cannot spin on a repeated query and cannot give up
// after a single empty search.
package linker

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/c360studio/semlink/aas"
	"github.com/c360studio/semlink/query"
	"github.com/c360studio/semlink/wikidata"
)

// DefaultMaxIterations bounds refine rounds per linking run.
const DefaultMaxIterations = 3

// SearchProvider executes a query against the knowledge base. The string
// return carries a diagnostic note for degraded results; the error return
// is reserved for context cancellation.
type SearchProvider interface {
	Search(ctx context.Context, q string) ([]wikidata.SearchHit, string, error)
}

// LoopState is the mutable state of one linking run. It is owned
// exclusively by the Controller for the run's duration.
type LoopState struct {
	Query         string
	History       []string
	Hits          []wikidata.SearchHit
	SearchNote    string
	Decision      Decision
	Iteration     int
	MaxIterations int
}

// Controller sequences proposer, search, and evaluator for one target.
// Each Run owns its own LoopState; a Controller is safe to reuse across
// sequential runs.
type Controller struct {
	proposer      Proposer
	searcher      SearchProvider
	evaluator     Evaluator
	maxIterations int
	logger        *slog.Logger
	metrics       *Metrics
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMaxIterations overrides the refine bound.
func WithMaxIterations(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithControllerLogger sets the structured logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithMetrics attaches loop metrics.
func WithMetrics(m *Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// NewController creates a linking loop controller.
func NewController(proposer Proposer, searcher SearchProvider, evaluator Evaluator, opts ...ControllerOption) *Controller {
	c := &Controller{
		proposer:      proposer,
		searcher:      searcher,
		evaluator:     evaluator,
		maxIterations: DefaultMaxIterations,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the loop for one semantic context until it terminates.
// The only error it returns is context cancellation; every other failure
// degrades to a diagnostic reason in the result.
func (c *Controller) Run(ctx context.Context, sem *aas.Context) (*Result, error) {
	start := time.Now()
	state := &LoopState{
		History:       []string{},
		MaxIterations: c.maxIterations,
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// ProposeQuery: feedback reflects exactly the prior evaluation,
		// then the transient decision fields are cleared.
		feedback := Feedback{
			Action:         state.Decision.Action,
			Reason:         state.Decision.Reason,
			SuggestedQuery: state.Decision.SuggestedQuery,
		}
		state.Decision = Decision{}

		q, err := c.proposer.Propose(ctx, sem, state.History, feedback)
		if err != nil {
			c.logger.Warn("query proposal failed", "error", err)
			q = ""
		}
		q = query.Normalize(q)
		state.Query = q
		if q != "" && !slices.Contains(state.History, q) {
			state.History = append(state.History, q)
		}
		c.logger.Debug("proposed query", "iteration", state.Iteration, "query", q)

		// Search: an empty query skips the call and retains prior hits.
		if q != "" {
			hits, note, err := c.searcher.Search(ctx, q)
			if err != nil {
				return nil, err
			}
			state.Hits = hits
			state.SearchNote = note
			if c.metrics != nil {
				c.metrics.SearchRequests.Inc()
				if note != "" {
					c.metrics.SearchFailures.Inc()
				}
			}
			c.logger.Debug("search completed", "query", q, "hits", len(hits), "note", note)
		} else {
			c.logger.Debug("empty query, skipping search", "iteration", state.Iteration)
		}

		// Evaluate, then apply the hard overrides.
		raw := c.evaluator.Evaluate(ctx, sem, state.Query, state.Hits, state.Iteration, state.History)
		state.Decision = c.applyOverrides(raw, state)
		c.logger.Debug("evaluation decided",
			"action", state.Decision.Action,
			"reason", state.Decision.Reason,
			"suggested", state.Decision.SuggestedQuery,
			"candidates", len(state.Decision.Candidates))

		if state.Decision.Action != ActionRefine {
			break
		}
		state.Iteration++
		if state.Iteration >= state.MaxIterations {
			c.logger.Debug("iteration bound reached", "iteration", state.Iteration)
			break
		}
	}

	result := assembleResult(sem, state)
	if c.metrics != nil {
		c.metrics.LoopRuns.WithLabelValues(string(state.Decision.Action)).Inc()
		c.metrics.Iterations.Observe(float64(state.Iteration))
		c.metrics.LoopDuration.Observe(time.Since(start).Seconds())
	}
	return result, nil
}

// applyOverrides enforces the loop's safety rules on a raw decision:
//
//  1. A refine whose suggested query is empty, equal to the current query,
//     or already in history is downgraded to stop (cycle prevention).
//  2. A stop with zero hits on the first iteration is converted to refine
//     with an empty suggestion, so the proposer gets a second attempt.
//
// Cycle prevention runs first so the empty-hits override always wins on
// the first iteration.
func (c *Controller) applyOverrides(d Decision, state *LoopState) Decision {
	if d.Action == ActionRefine {
		suggested := query.Normalize(d.SuggestedQuery)
		d.SuggestedQuery = suggested
		if suggested == "" || suggested == state.Query || slices.Contains(state.History, suggested) {
			d.Action = ActionStop
			d.Reason = appendReason(d.Reason, "stopping: no new query to try")
			d.SuggestedQuery = ""
			if c.metrics != nil {
				c.metrics.Overrides.WithLabelValues("cycle").Inc()
			}
		}
	}

	if d.Action == ActionStop && len(state.Hits) == 0 && state.Iteration < 1 {
		d.Action = ActionRefine
		d.SuggestedQuery = ""
		d.Reason = appendReason(d.Reason, "overridden to refine: empty hits on first iteration")
		if c.metrics != nil {
			c.metrics.Overrides.WithLabelValues("empty_hits").Inc()
		}
	}

	return d
}
