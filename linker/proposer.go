package linker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/semlink/aas"
	"github.com/c360studio/semlink/llm"
	"github.com/c360studio/semlink/model"
	"github.com/c360studio/semlink/query"
)

// Feedback carries the prior evaluation's verdict into the next proposal.
type Feedback struct {
	Action         Action
	Reason         string
	SuggestedQuery string
}

// Proposer produces one normalized search query per loop round. An empty
// string is a valid result meaning no query could be formed.
type Proposer interface {
	Propose(ctx context.Context, sem *aas.Context, history []string, feedback Feedback) (string, error)
}

// defaultTemperature keeps loop-role completions close to deterministic.
const defaultTemperature = 0.1

// LLMProposer derives queries with a generative model, falling back to
// heuristic seed queries when the model is unavailable.
type LLMProposer struct {
	client      llm.Completer
	logger      *slog.Logger
	temperature float64
}

// ProposerOption configures an LLMProposer.
type ProposerOption func(*LLMProposer)

// WithProposerTemperature overrides the sampling temperature.
func WithProposerTemperature(t float64) ProposerOption {
	return func(p *LLMProposer) { p.temperature = t }
}

// NewLLMProposer creates a model-backed query proposer.
func NewLLMProposer(client llm.Completer, logger *slog.Logger, opts ...ProposerOption) *LLMProposer {
	if logger == nil {
		logger = slog.Default()
	}
	p := &LLMProposer{client: client, logger: logger, temperature: defaultTemperature}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propose returns the next query. A non-empty suggested query in the
// feedback is authoritative and adopted verbatim after normalization.
func (p *LLMProposer) Propose(ctx context.Context, sem *aas.Context, history []string, feedback Feedback) (string, error) {
	if feedback.SuggestedQuery != "" {
		return query.Normalize(feedback.SuggestedQuery), nil
	}

	ctxJSON, err := json.Marshal(sem)
	if err != nil {
		return "", fmt.Errorf("marshal context: %w", err)
	}
	fbJSON, _ := json.Marshal(map[string]string{
		"action":          string(feedback.Action),
		"reason":          feedback.Reason,
		"suggested_query": feedback.SuggestedQuery,
	})

	temp := p.temperature
	resp, err := p.client.Complete(ctx, llm.Request{
		Capability:  model.CapabilityPropose.String(),
		Temperature: &temp,
		Messages: []llm.Message{
			{Role: "system", Content: proposerSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(
				"Build a short query for this target + submodel.\nContext JSON:\n%s\nPrevious queries: %s\nEvaluation feedback: %s",
				ctxJSON, formatHistory(history), fbJSON,
			)},
		},
	})
	if err != nil {
		p.logger.Warn("query proposal model failed, using heuristic seeds", "error", err)
		return heuristicQuery(sem, history), nil
	}

	return query.Normalize(strings.TrimSpace(resp.Content)), nil
}

// HeuristicProposer derives queries from seed keywords only, with no model
// involvement. Used offline and as the degraded-mode proposer.
type HeuristicProposer struct{}

// Propose adopts a suggested query if present, otherwise returns the first
// seed query not already in history.
func (HeuristicProposer) Propose(_ context.Context, sem *aas.Context, history []string, feedback Feedback) (string, error) {
	if feedback.SuggestedQuery != "" {
		return query.Normalize(feedback.SuggestedQuery), nil
	}
	return heuristicQuery(sem, history), nil
}

// heuristicQuery picks the first unused seed query for the context.
func heuristicQuery(sem *aas.Context, history []string) string {
	used := make(map[string]bool, len(history))
	for _, h := range history {
		used[h] = true
	}
	for _, seed := range query.SeedQueries(sem) {
		q := query.Normalize(seed)
		if q != "" && !used[q] {
			return q
		}
	}
	return ""
}

func formatHistory(history []string) string {
	if len(history) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(history)
	return string(b)
}
