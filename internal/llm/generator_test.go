package llm_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rrens/ai-interviewer/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider mocks llm.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string              { return "mock" }
func (m *MockProvider) AvailableModels() []string { return []string{"mock-1"} }
func (m *MockProvider) DefaultModel() string      { return "mock-1" }
func (m *MockProvider) IsConfigured() bool        { return true }

func (m *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest, model string) (*llm.CompletionResponse, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.CompletionResponse), args.Error(1)
}

// MockModerator mocks llm.Moderator
type MockModerator struct {
	mock.Mock
}

func (m *MockModerator) Moderate(ctx context.Context, text string) (bool, error) {
	args := m.Called(ctx, text)
	return args.Bool(0), args.Error(1)
}

func promptIs(prompt string) any {
	return mock.MatchedBy(func(req llm.CompletionRequest) bool { return req.Prompt == prompt })
}

func newGenerator(p llm.Provider, mod llm.Moderator, retries int) *llm.Generator {
	router := llm.NewRouter("mock")
	router.RegisterProvider(p)
	return llm.NewGenerator(router, mod, llm.GeneratorConfig{
		RequestTimeout: time.Second,
		MaxRetries:     retries,
		RetryBackoff:   time.Millisecond,
	})
}

func TestGenerator_Complete(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, promptIs("summarize"), "").
		Return(&llm.CompletionResponse{Text: "Summary: Prefers bonds."}, nil)
	p.On("Complete", mock.Anything, promptIs("transition"), "mock-2").
		Return(&llm.CompletionResponse{Text: "\"Question: What about risk?\""}, nil)

	gen := newGenerator(p, nil, 0)
	out, err := gen.Complete(context.Background(), map[string]llm.Task{
		"summary":    {Name: "summary", Prompt: "summarize", Label: llm.LabelSummary},
		"transition": {Name: "transition", Prompt: "transition", Model: "mock-2", Label: llm.LabelQuestion},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"summary":    "Prefers bonds.",
		"transition": "What about risk?",
	}, out)
	p.AssertExpectations(t)
}

func TestGenerator_CompleteRunsConcurrently(t *testing.T) {
	p := new(MockProvider)
	var inFlight, peak int32
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}).
		Return(&llm.CompletionResponse{Text: "ok"}, nil)

	gen := newGenerator(p, nil, 0)
	_, err := gen.Complete(context.Background(), map[string]llm.Task{
		"a": {Prompt: "a"},
		"b": {Prompt: "b"},
		"c": {Prompt: "c"},
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&peak))
}

func TestGenerator_CompleteIsAllOrNothing(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, promptIs("good"), mock.Anything).
		Return(&llm.CompletionResponse{Text: "fine"}, nil)
	p.On("Complete", mock.Anything, promptIs("bad"), mock.Anything).
		Return(nil, errors.New("upstream 500"))

	gen := newGenerator(p, nil, 0)
	out, err := gen.Complete(context.Background(), map[string]llm.Task{
		"good": {Prompt: "good"},
		"bad":  {Prompt: "bad"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "task bad")
	assert.Nil(t, out)
}

func TestGenerator_RetriesThenSucceeds(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout")).Twice()
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&llm.CompletionResponse{Text: "Question: Why?"}, nil).Once()

	gen := newGenerator(p, nil, 4)
	out, err := gen.Complete(context.Background(), map[string]llm.Task{
		"probe": {Prompt: "probe", Label: llm.LabelQuestion},
	})

	require.NoError(t, err)
	assert.Equal(t, "Why?", out["probe"])
	p.AssertNumberOfCalls(t, "Complete", 3)
}

func TestGenerator_RetriesAreBounded(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&llm.CompletionResponse{Text: "no label here"}, nil)

	gen := newGenerator(p, nil, 2)
	_, err := gen.Complete(context.Background(), map[string]llm.Task{
		"probe": {Prompt: "probe", Label: llm.LabelQuestion},
	})

	assert.ErrorIs(t, err, llm.ErrMalformedGeneration)
	p.AssertNumberOfCalls(t, "Complete", 3)
}

func TestGenerator_Relevance(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"yes", "yes", true},
		{"capitalized with punctuation", "Yes.", true},
		{"no", "no", false},
		{"anything else fails closed", "I am not sure", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := new(MockProvider)
			p.On("Complete", mock.Anything, mock.Anything, mock.Anything).
				Return(&llm.CompletionResponse{Text: tt.output}, nil)

			got, err := newGenerator(p, nil, 0).Relevance(context.Background(), llm.Task{Prompt: "check"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerator_Moderate(t *testing.T) {
	p := new(MockProvider)

	flagged, err := newGenerator(p, nil, 0).Moderate(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, flagged)

	mod := new(MockModerator)
	mod.On("Moderate", mock.Anything, "bad words").Return(true, nil)
	flagged, err = newGenerator(p, mod, 0).Moderate(context.Background(), "bad words")
	require.NoError(t, err)
	assert.True(t, flagged)
}

func TestGenerator_UnknownProvider(t *testing.T) {
	gen := newGenerator(new(MockProvider), nil, 0)
	_, err := gen.Complete(context.Background(), map[string]llm.Task{
		"probe": {Provider: "nope", Prompt: "x"},
	})
	assert.Error(t, err)
}
