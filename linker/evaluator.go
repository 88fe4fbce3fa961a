package linker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/c360studio/semlink/aas"
	"github.com/c360studio/semlink/llm"
	"github.com/c360studio/semlink/model"
	"github.com/c360studio/semlink/wikidata"
)

// Evaluator judges the current query and hit set. It always returns a
// usable Decision; failures degrade to a stop decision with a diagnostic
// reason rather than an error.
type Evaluator interface {
	Evaluate(ctx context.Context, sem *aas.Context, q string, hits []wikidata.SearchHit, iteration int, history []string) Decision
}

// LLMEvaluator asks a generative model for a structured decision.
type LLMEvaluator struct {
	client      llm.Completer
	logger      *slog.Logger
	temperature float64
}

// EvaluatorOption configures an LLMEvaluator.
type EvaluatorOption func(*LLMEvaluator)

// WithEvaluatorTemperature overrides the sampling temperature.
func WithEvaluatorTemperature(t float64) EvaluatorOption {
	return func(e *LLMEvaluator) { e.temperature = t }
}

// NewLLMEvaluator creates a model-backed evaluator.
func NewLLMEvaluator(client llm.Completer, logger *slog.Logger, opts ...EvaluatorOption) *LLMEvaluator {
	if logger == nil {
		logger = slog.Default()
	}
	e := &LLMEvaluator{client: client, logger: logger, temperature: defaultTemperature}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate sends context, query, and hits to the evaluation model and
// parses its decision. Candidate filtering and the select-to-refine
// downgrade happen inside ParseDecision.
func (e *LLMEvaluator) Evaluate(ctx context.Context, sem *aas.Context, q string, hits []wikidata.SearchHit, iteration int, history []string) Decision {
	ctxJSON, err := json.Marshal(sem)
	if err != nil {
		return Decision{Action: ActionStop, Reason: fmt.Sprintf("marshal context: %v", err)}
	}
	hitsJSON, _ := json.Marshal(hits)

	temp := e.temperature
	resp, err := e.client.Complete(ctx, llm.Request{
		Capability:  model.CapabilityEvaluate.String(),
		Temperature: &temp,
		Messages: []llm.Message{
			{Role: "system", Content: evaluatorSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(
				"Evaluate the current query and hits.\n"+
					"If you select, fill 'candidates' with top 3-5 good ones.\n"+
					"If you refine, fill 'suggested_query' with a new short query.\n"+
					"If you stop, leave suggested_query empty.\n\n"+
					"Iteration: %d\nQuery history: %s\n\nTarget context:\n%s\n\nCurrent query: %s\n\nWikidata hits:\n%s",
				iteration, formatHistory(history), ctxJSON, q, hitsJSON,
			)},
		},
	})
	if err != nil {
		e.logger.Warn("evaluation model failed", "error", err)
		return Decision{Action: ActionStop, Reason: fmt.Sprintf("evaluation failed: %v", err)}
	}

	return ParseDecision(resp.Content)
}
