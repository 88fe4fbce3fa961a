package linker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlink/aas"
	"github.com/c360studio/semlink/llm"
	"github.com/c360studio/semlink/llm/testutil"
)

func TestLLMProposer_AdoptsSuggestedQuery(t *testing.T) {
	mock := &testutil.MockClient{}
	p := NewLLMProposer(mock, nil)

	q, err := p.Propose(context.Background(), testContext(), nil, Feedback{
		Action:         ActionRefine,
		SuggestedQuery: "Remaining Useful-Life Estimation Method",
	})
	require.NoError(t, err)
	assert.Equal(t, "remaining useful life estimation", q, "adopted suggestions are normalized and truncated")
	assert.Zero(t, mock.CallCount(), "a suggested query bypasses the model")
}

func TestLLMProposer_QueriesModel(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{
			{Content: "  Remaining Useful Life\n", Model: "test-model"},
		},
	}
	p := NewLLMProposer(mock, nil)

	q, err := p.Propose(context.Background(), testContext(), []string{"prior query"}, Feedback{})
	require.NoError(t, err)
	assert.Equal(t, "remaining useful life", q)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "propose", reqs[0].Capability)
	require.Len(t, reqs[0].Messages, 2)
	assert.Equal(t, "system", reqs[0].Messages[0].Role)
	assert.Contains(t, reqs[0].Messages[1].Content, "prior query")
}

func TestLLMProposer_UsesConfiguredTemperature(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{{Content: "pump pressure"}},
	}
	p := NewLLMProposer(mock, nil, WithProposerTemperature(0.7))

	_, err := p.Propose(context.Background(), testContext(), nil, Feedback{})
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Temperature)
	assert.Equal(t, 0.7, *reqs[0].Temperature)
}

func TestLLMProposer_ModelFailureFallsBackToSeeds(t *testing.T) {
	mock := &testutil.MockClient{Err: errors.New("connection refused")}
	p := NewLLMProposer(mock, nil)

	sem := &aas.Context{Target: aas.TargetNode{IDShort: "RemainingUsefulLife"}}
	q, err := p.Propose(context.Background(), sem, nil, Feedback{})
	require.NoError(t, err, "model failure degrades to heuristics")
	assert.Equal(t, "remaining useful life", q)
}

func TestHeuristicProposer_WalksSeeds(t *testing.T) {
	sem := &aas.Context{
		Submodel: &aas.SubmodelBlock{IDShort: "HydraulicPump"},
		Target:   aas.TargetNode{IDShort: "Pressure"},
	}
	p := HeuristicProposer{}

	q1, err := p.Propose(context.Background(), sem, nil, Feedback{})
	require.NoError(t, err)
	assert.Equal(t, "pressure", q1)

	q2, err := p.Propose(context.Background(), sem, []string{q1}, Feedback{})
	require.NoError(t, err)
	assert.Equal(t, "pressure hydraulic pump", q2)

	q3, err := p.Propose(context.Background(), sem, []string{q1, q2}, Feedback{})
	require.NoError(t, err)
	assert.Empty(t, q3, "seeds exhausted")
}

func TestHeuristicProposer_AdoptsSuggestedQuery(t *testing.T) {
	q, err := HeuristicProposer{}.Propose(context.Background(), testContext(), nil, Feedback{
		SuggestedQuery: "Pump Pressure",
	})
	require.NoError(t, err)
	assert.Equal(t, "pump pressure", q)
}
