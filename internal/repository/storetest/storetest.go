// Package storetest holds the behaviour every domain.SessionStore backend
// must share. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// Fixture returns a mid-interview session with every field populated
func Fixture(id string) *domain.Session {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Unix()
	return &domain.Session{
		SessionID:   id,
		InterviewID: "stock_market",
		TopicPlan: []domain.Topic{
			{Text: "reasons", RequiredProbeCount: 2},
			{Text: "barriers", RequiredProbeCount: 1},
		},
		ClosingQuestions: []string{"Anything else?"},
		Chat: []domain.Message{
			{Role: domain.RoleInterviewer, Content: "Why not stocks?", TopicIndex: 0, QuestionIndex: 1, Timestamp: ts},
			{Role: domain.RoleRespondent, Content: "Too risky, \"honestly\".", TopicIndex: 0, QuestionIndex: 1, Timestamp: ts + 5},
			{Role: domain.RoleInterviewer, Content: "What makes it feel risky?", TopicIndex: 0, QuestionIndex: 2, Timestamp: ts + 7},
		},
		CurrentTopicIndex:    0,
		CurrentQuestionIndex: 2,
		CurrentClosingIndex:  0,
		FlagCount:            1,
		FlaggedMessages:      []domain.FlaggedMessage{{Content: "asdf", Timestamp: ts + 3}},
		Summary:              "Respondent finds stocks risky.",
		MaxFlagsAllowed:      3,
		CreatedAt:            ts,
		UpdatedAt:            ts + 7,
	}
}

// Run exercises a store against the SessionStore contract. The store must be empty.
func Run(t *testing.T, store domain.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		want := Fixture("round-trip")
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Load(ctx, "round-trip")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("save overwrites", func(t *testing.T) {
		s := Fixture("overwrite")
		require.NoError(t, store.Save(ctx, s))

		s.Terminated = true
		s.TerminatedReason = domain.ReasonEndOfInterview
		s.Chat = append(s.Chat, domain.Message{Role: domain.RoleRespondent, Content: "bye", TopicIndex: 0, QuestionIndex: 2})
		require.NoError(t, store.Save(ctx, s))

		got, err := store.Load(ctx, "overwrite")
		require.NoError(t, err)
		assert.Equal(t, s, got)
	})

	t.Run("loaded copy is detached", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, Fixture("detached")))

		got, err := store.Load(ctx, "detached")
		require.NoError(t, err)
		got.Chat[0].Content = "mutated"

		again, err := store.Load(ctx, "detached")
		require.NoError(t, err)
		assert.Equal(t, "Why not stocks?", again.Chat[0].Content)
	})

	t.Run("list sorted", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"detached", "overwrite", "round-trip"}, ids)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "detached"))
		require.NoError(t, store.Delete(ctx, "detached"))

		_, err := store.Load(ctx, "detached")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
