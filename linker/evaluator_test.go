package linker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlink/llm"
	"github.com/c360studio/semlink/llm/testutil"
	"github.com/c360studio/semlink/wikidata"
)

func TestLLMEvaluator_ParsesDecision(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{
			{Content: `{"action": "select", "reason": "direct match", "suggested_query": "", "candidates": [{"id": "Q110471914", "label": "remaining useful life", "description": "prognostics concept", "score": 0.92, "rank": 1}]}`},
		},
	}
	e := NewLLMEvaluator(mock, nil)

	hits := []wikidata.SearchHit{{ID: "Q110471914", Label: "remaining useful life"}}
	d := e.Evaluate(context.Background(), testContext(), "remaining useful life", hits, 0, []string{"remaining useful life"})

	assert.Equal(t, ActionSelect, d.Action)
	require.Len(t, d.Candidates, 1)
	assert.Equal(t, "Q110471914", d.Candidates[0].ID)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "evaluate", reqs[0].Capability)
	assert.Contains(t, reqs[0].Messages[1].Content, "Q110471914")
	assert.Contains(t, reqs[0].Messages[1].Content, "remaining useful life")
}

func TestLLMEvaluator_UsesConfiguredTemperature(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{
			{Content: `{"action": "stop", "reason": "nothing usable"}`},
		},
	}
	e := NewLLMEvaluator(mock, nil, WithEvaluatorTemperature(0.3))

	e.Evaluate(context.Background(), testContext(), "pump", nil, 0, nil)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Temperature)
	assert.Equal(t, 0.3, *reqs[0].Temperature)
}

func TestLLMEvaluator_ModelFailureStops(t *testing.T) {
	mock := &testutil.MockClient{Err: errors.New("all endpoints failed")}
	e := NewLLMEvaluator(mock, nil)

	d := e.Evaluate(context.Background(), testContext(), "pump", nil, 0, nil)
	assert.Equal(t, ActionStop, d.Action)
	assert.Contains(t, d.Reason, "evaluation failed")
	assert.Empty(t, d.Candidates)
}

func TestLLMEvaluator_GarbageOutputStops(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{
			{Content: "I could not decide, sorry."},
		},
	}
	e := NewLLMEvaluator(mock, nil)

	d := e.Evaluate(context.Background(), testContext(), "pump", nil, 0, nil)
	assert.Equal(t, ActionStop, d.Action)
	assert.Equal(t, "invalid decision output", d.Reason)
}
