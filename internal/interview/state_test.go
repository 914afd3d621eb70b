package interview_test

import (
	"testing"
	"time"

	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/Rrens/ai-interviewer/internal/interview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Unix(1700000000, 0)

func newPlan(closing []string, lengths ...int) *domain.InterviewPlan {
	plan := &domain.InterviewPlan{
		ID:               "test",
		OpeningQuestion:  "Hi",
		ClosingQuestions: closing,
		MaxFlagsAllowed:  3,
	}
	for i, l := range lengths {
		plan.Topics = append(plan.Topics, domain.Topic{
			Text:               string(rune('A' + i)),
			RequiredProbeCount: l,
		})
	}
	return plan
}

func newState(t *testing.T, plan *domain.InterviewPlan) *interview.State {
	t.Helper()
	st, err := interview.Resume(interview.NewSession("s1", plan, fixedNow),
		interview.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return st
}

// answer records a respondent message and realizes the next action without
// generation, returning the action taken.
func answer(t *testing.T, st *interview.State, text string) interview.Action {
	t.Helper()
	require.NoError(t, st.RecordRespondentMessage(text))

	action := st.ComputeNextAction()
	switch a := action.(type) {
	case interview.Probe:
		st.ApplyProbe()
		require.NoError(t, st.RecordInterviewerMessage("probe on "+a.Topic.Text))
	case interview.Transition:
		st.ApplyTransition("summary of " + a.From.Text)
		require.NoError(t, st.RecordInterviewerMessage("moving to "+a.To.Text))
	case interview.Close:
		q, ok := st.ApplyClose()
		require.True(t, ok)
		require.NoError(t, st.RecordInterviewerMessage(q))
	case interview.Finish:
		require.NoError(t, st.Terminate(domain.ReasonEndOfInterview))
	}
	return action
}

func TestNewSession(t *testing.T) {
	plan := newPlan([]string{"Wrap up?"}, 1)
	s := interview.NewSession("s1", plan, fixedNow)

	require.Len(t, s.Chat, 1)
	assert.Equal(t, domain.RoleInterviewer, s.Chat[0].Role)
	assert.Equal(t, "Hi", s.Chat[0].Content)
	assert.Equal(t, 0, s.CurrentTopicIndex)
	assert.Equal(t, 1, s.CurrentQuestionIndex)
	assert.Equal(t, 0, s.CurrentClosingIndex)
	assert.Equal(t, fixedNow.Unix(), s.CreatedAt)

	// plan edits after creation do not leak into the session
	plan.Topics[0].Text = "changed"
	assert.Equal(t, "A", s.TopicPlan[0].Text)
}

func TestTopicProgression(t *testing.T) {
	st := newState(t, newPlan([]string{"Q1"}, 2, 1))
	assert.Equal(t, interview.PhaseProbing, st.Phase())

	assert.Equal(t, interview.KindProbe, answer(t, st, "a1").Kind())
	assert.Equal(t, interview.PhaseTransitioning, st.Phase())

	assert.Equal(t, interview.KindTransition, answer(t, st, "a2").Kind())
	assert.Equal(t, 1, st.Session().CurrentTopicIndex)
	assert.Equal(t, 1, st.Session().CurrentQuestionIndex)
	assert.Equal(t, "summary of A", st.Session().Summary)
	assert.Equal(t, interview.PhaseClosing, st.Phase())

	action := answer(t, st, "a3")
	require.Equal(t, interview.KindClose, action.Kind())
	assert.Equal(t, "Q1", action.(interview.Close).Question)
	assert.Equal(t, 2, st.Session().CurrentTopicIndex)
	assert.Equal(t, interview.PhaseDonePendingTermination, st.Phase())

	assert.Equal(t, interview.KindFinish, answer(t, st, "a4").Kind())
	assert.Equal(t, interview.PhaseTerminated, st.Phase())
	assert.Equal(t, domain.ReasonEndOfInterview, st.Session().TerminatedReason)
}

func TestSingleQuestionTopicGoesStraightToClosing(t *testing.T) {
	st := newState(t, newPlan([]string{"Wrap up?"}, 1))

	action := answer(t, st, "my answer")
	require.Equal(t, interview.KindClose, action.Kind())
	assert.Equal(t, "Wrap up?", st.Session().Chat[len(st.Session().Chat)-1].Content)

	assert.Equal(t, interview.KindFinish, answer(t, st, "done").Kind())
	assert.True(t, st.Terminated())
}

func TestEmptyPlanAndNoClosing(t *testing.T) {
	tests := []struct {
		name string
		plan *domain.InterviewPlan
		want interview.ActionKind
	}{
		{"no topics with closing", newPlan([]string{"Q"}), interview.KindClose},
		{"no topics no closing", newPlan(nil), interview.KindFinish},
		{"single topic no closing", newPlan(nil, 1), interview.KindFinish},
		{"zero length topic treated as one", newPlan(nil, 0, 1), interview.KindTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState(t, tt.plan)
			require.NoError(t, st.RecordRespondentMessage("x"))
			assert.Equal(t, tt.want, st.ComputeNextAction().Kind())
		})
	}
}

func TestCountersAreClamped(t *testing.T) {
	tests := []struct {
		name     string
		topic    int
		question int
		want     interview.ActionKind
	}{
		{"question beyond topic length", 0, 9, interview.KindTransition},
		{"negative question", 0, -4, interview.KindProbe},
		{"topic beyond plan", 7, 1, interview.KindClose},
		{"negative topic", -2, 1, interview.KindProbe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := interview.NewSession("s1", newPlan([]string{"Q"}, 2, 2), fixedNow)
			s.CurrentTopicIndex = tt.topic
			s.CurrentQuestionIndex = tt.question
			st, err := interview.Resume(s)
			require.NoError(t, err)

			assert.Equal(t, tt.want, st.ComputeNextAction().Kind())
		})
	}
}

func TestTransitionKeepsSummaryWhenEmpty(t *testing.T) {
	st := newState(t, newPlan(nil, 1, 1, 1))
	st.ApplyTransition("first")
	st.ApplyTransition("")
	assert.Equal(t, "first", st.Session().Summary)
	assert.Equal(t, 2, st.Session().CurrentTopicIndex)
}

func TestAlternationIsEnforced(t *testing.T) {
	st := newState(t, newPlan(nil, 2))

	err := st.RecordInterviewerMessage("second question in a row")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	require.NoError(t, st.RecordRespondentMessage("answer"))
	err = st.RecordRespondentMessage("again")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.Len(t, st.Session().Chat, 2)
}

func TestTerminate(t *testing.T) {
	st := newState(t, newPlan(nil, 2))

	require.NoError(t, st.Terminate(domain.ReasonFlagLimitExceeded))
	require.NoError(t, st.Terminate(domain.ReasonFlagLimitExceeded))

	err := st.Terminate(domain.ReasonEndOfInterview)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.Equal(t, domain.ReasonFlagLimitExceeded, st.Session().TerminatedReason)

	err = st.RecordRespondentMessage("too late")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestFlagKeepsCountInSync(t *testing.T) {
	st := newState(t, newPlan(nil, 2))
	st.Session().MaxFlagsAllowed = 2

	st.Flag("one")
	assert.False(t, st.FlagLimitReached())
	st.Flag("")
	assert.True(t, st.FlagLimitReached())

	s := st.Session()
	assert.Equal(t, len(s.FlaggedMessages), s.FlagCount)
	assert.Equal(t, fixedNow.Unix(), s.FlaggedMessages[1].Timestamp)
}

func TestResumeRejectsBrokenSessions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *domain.Session)
	}{
		{"flag count mismatch", func(s *domain.Session) { s.FlagCount = 3 }},
		{"terminated without reason", func(s *domain.Session) { s.Terminated = true }},
		{"reason without terminated", func(s *domain.Session) { s.TerminatedReason = "x" }},
		{"empty chat", func(s *domain.Session) { s.Chat = nil }},
		{"respondent first", func(s *domain.Session) { s.Chat[0].Role = domain.RoleRespondent }},
		{"no alternation", func(s *domain.Session) {
			s.Chat = append(s.Chat, domain.Message{Role: domain.RoleInterviewer, Content: "again"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := interview.NewSession("s1", newPlan(nil, 1), fixedNow)
			tt.mutate(s)
			_, err := interview.Resume(s)
			assert.ErrorIs(t, err, domain.ErrInvariantViolation)
		})
	}
}

func TestTopicTranscript(t *testing.T) {
	st := newState(t, newPlan(nil, 2, 2))
	answer(t, st, "a1")
	answer(t, st, "a2")
	require.NoError(t, st.RecordRespondentMessage("b1"))

	msgs := st.TopicTranscript()
	require.Len(t, msgs, 2)
	assert.Equal(t, "moving to B", msgs[0].Content)
	assert.Equal(t, "b1", msgs[1].Content)
	assert.Equal(t, "moving to B", st.LastInterviewerMessage())
	assert.Equal(t, "b1", st.LastRespondentMessage())

	topic, ok := st.CurrentTopic()
	assert.True(t, ok)
	assert.Equal(t, "B", topic.Text)
	_, ok = st.NextTopic()
	assert.False(t, ok)
}

func TestChatIndices(t *testing.T) {
	st := newState(t, newPlan([]string{"Q"}, 2, 1))
	answer(t, st, "a1")
	answer(t, st, "a2")

	chat := st.Session().Chat
	got := make([][2]int, len(chat))
	for i, m := range chat {
		got[i] = [2]int{m.TopicIndex, m.QuestionIndex}
	}
	assert.Equal(t, [][2]int{{0, 1}, {0, 1}, {0, 2}, {0, 2}, {1, 1}}, got)
}
