package interview

import (
	"fmt"
	"time"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// State wraps a session document with the interview state machine. It never
// performs I/O; persisting the session is the caller's job.
type State struct {
	session *domain.Session
	now     func() time.Time
}

// Option configures a State
type Option func(*State)

// WithClock overrides the time source used for message timestamps
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// NewSession builds the initial document for a session of plan. The opening
// question is recorded as the first interviewer message, question 1 of topic 0.
func NewSession(sessionID string, plan *domain.InterviewPlan, now time.Time) *domain.Session {
	topics := make([]domain.Topic, len(plan.Topics))
	copy(topics, plan.Topics)
	closing := make([]string, len(plan.ClosingQuestions))
	copy(closing, plan.ClosingQuestions)

	ts := now.Unix()
	return &domain.Session{
		SessionID:            sessionID,
		InterviewID:          plan.ID,
		TopicPlan:            topics,
		ClosingQuestions:     closing,
		CurrentTopicIndex:    0,
		CurrentQuestionIndex: 1,
		CurrentClosingIndex:  0,
		Chat: []domain.Message{{
			Role:          domain.RoleInterviewer,
			Content:       plan.OpeningQuestion,
			TopicIndex:    0,
			QuestionIndex: 1,
			Timestamp:     ts,
		}},
		FlaggedMessages: []domain.FlaggedMessage{},
		MaxFlagsAllowed: plan.MaxFlagsAllowed,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}

// Resume validates a loaded session and wraps it
func Resume(session *domain.Session, opts ...Option) (*State, error) {
	if err := Validate(session); err != nil {
		return nil, err
	}

	st := &State{session: session, now: time.Now}
	for _, opt := range opts {
		opt(st)
	}
	return st, nil
}

// Validate checks the structural invariants of a session document
func Validate(s *domain.Session) error {
	if s == nil {
		return fmt.Errorf("%w: nil session", domain.ErrInvariantViolation)
	}
	if s.FlagCount != len(s.FlaggedMessages) {
		return fmt.Errorf("%w: flag_count %d does not match %d flagged messages",
			domain.ErrInvariantViolation, s.FlagCount, len(s.FlaggedMessages))
	}
	if s.Terminated != (s.TerminatedReason != "") {
		return fmt.Errorf("%w: terminated=%t with reason %q",
			domain.ErrInvariantViolation, s.Terminated, s.TerminatedReason)
	}
	if len(s.Chat) == 0 || s.Chat[0].Role != domain.RoleInterviewer {
		return fmt.Errorf("%w: chat must open with an interviewer message", domain.ErrInvariantViolation)
	}
	for i := 1; i < len(s.Chat); i++ {
		if s.Chat[i].Role == s.Chat[i-1].Role {
			return fmt.Errorf("%w: chat does not alternate at message %d", domain.ErrInvariantViolation, i)
		}
	}
	return nil
}

// Session returns the wrapped document
func (st *State) Session() *domain.Session {
	return st.session
}

// Terminated reports whether the session is frozen
func (st *State) Terminated() bool {
	return st.session.Terminated
}

func requiredCount(t domain.Topic) int {
	if t.RequiredProbeCount < 1 {
		return 1
	}
	return t.RequiredProbeCount
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (st *State) topicIndex() int {
	return clamp(st.session.CurrentTopicIndex, 0, len(st.session.TopicPlan))
}

func (st *State) questionIndex() int {
	ti := st.topicIndex()
	if ti < len(st.session.TopicPlan) {
		return clamp(st.session.CurrentQuestionIndex, 1, requiredCount(st.session.TopicPlan[ti]))
	}
	return max(st.session.CurrentQuestionIndex, 1)
}

func (st *State) closingIndex() int {
	return clamp(st.session.CurrentClosingIndex, 0, len(st.session.ClosingQuestions))
}

// CurrentTopic returns the topic being discussed, false in the closing phase
func (st *State) CurrentTopic() (domain.Topic, bool) {
	ti := st.topicIndex()
	if ti >= len(st.session.TopicPlan) {
		return domain.Topic{}, false
	}
	return st.session.TopicPlan[ti], true
}

// NextTopic returns the topic after the current one
func (st *State) NextTopic() (domain.Topic, bool) {
	ti := st.topicIndex() + 1
	if ti >= len(st.session.TopicPlan) {
		return domain.Topic{}, false
	}
	return st.session.TopicPlan[ti], true
}

// ComputeNextAction decides how to answer the respondent message just
// recorded. Exhaustion is tested by equality on clamped counters.
func (st *State) ComputeNextAction() Action {
	plan := st.session.TopicPlan
	ti := st.topicIndex()

	if ti < len(plan) {
		topic := plan[ti]
		if st.questionIndex() != requiredCount(topic) {
			return Probe{Topic: topic, TopicIndex: ti}
		}
		if ti+1 < len(plan) {
			return Transition{From: topic, To: plan[ti+1], ToIndex: ti + 1}
		}
		// leaving the last topic goes straight to the closing questions
	}

	ci := st.closingIndex()
	if ci < len(st.session.ClosingQuestions) {
		return Close{Question: st.session.ClosingQuestions[ci]}
	}
	return Finish{}
}

// Phase derives the sub-phase from the counters
func (st *State) Phase() Phase {
	if st.session.Terminated {
		return PhaseTerminated
	}

	switch st.ComputeNextAction().(type) {
	case Probe:
		return PhaseProbing
	case Transition:
		return PhaseTransitioning
	case Close:
		return PhaseClosing
	default:
		return PhaseDonePendingTermination
	}
}

// ApplyProbe advances to the next question of the current topic
func (st *State) ApplyProbe() {
	st.session.CurrentQuestionIndex = st.questionIndex() + 1
}

// ApplyTransition moves to the next topic. An empty summary keeps the
// previous one.
func (st *State) ApplyTransition(summary string) {
	st.session.CurrentTopicIndex = min(st.topicIndex()+1, len(st.session.TopicPlan))
	st.session.CurrentQuestionIndex = 1
	if summary != "" {
		st.session.Summary = summary
	}
}

// ApplyClose enters the closing phase if needed and consumes the next closing
// question. It returns false when none remain.
func (st *State) ApplyClose() (string, bool) {
	ci := st.closingIndex()
	if ci >= len(st.session.ClosingQuestions) {
		return "", false
	}

	if st.topicIndex() < len(st.session.TopicPlan) {
		st.session.CurrentTopicIndex = len(st.session.TopicPlan)
		st.session.CurrentQuestionIndex = 1
	} else {
		st.session.CurrentQuestionIndex = st.questionIndex() + 1
	}
	st.session.CurrentClosingIndex = ci + 1

	return st.session.ClosingQuestions[ci], true
}

// Terminate freezes the session. Terminating twice with the same reason is a
// no-op; a different reason keeps the first one and reports a violation.
func (st *State) Terminate(reason string) error {
	if st.session.Terminated {
		if st.session.TerminatedReason == reason {
			return nil
		}
		return fmt.Errorf("%w: already terminated with %q, refusing %q",
			domain.ErrInvariantViolation, st.session.TerminatedReason, reason)
	}

	st.session.Terminated = true
	st.session.TerminatedReason = reason
	return nil
}

// RecordRespondentMessage appends the respondent's answer to the open question
func (st *State) RecordRespondentMessage(text string) error {
	if err := st.checkAppend(domain.RoleRespondent); err != nil {
		return err
	}
	st.append(domain.RoleRespondent, text)
	return nil
}

// RecordInterviewerMessage appends a question at the current counters
func (st *State) RecordInterviewerMessage(text string) error {
	if err := st.checkAppend(domain.RoleInterviewer); err != nil {
		return err
	}
	st.append(domain.RoleInterviewer, text)
	return nil
}

func (st *State) checkAppend(role domain.Role) error {
	if st.session.Terminated {
		return fmt.Errorf("%w: session %s is terminated", domain.ErrInvariantViolation, st.session.SessionID)
	}
	chat := st.session.Chat
	if len(chat) == 0 || chat[len(chat)-1].Role == role {
		return fmt.Errorf("%w: %s message would break alternation", domain.ErrInvariantViolation, role)
	}
	return nil
}

func (st *State) append(role domain.Role, text string) {
	st.session.Chat = append(st.session.Chat, domain.Message{
		Role:          role,
		Content:       text,
		TopicIndex:    st.topicIndex(),
		QuestionIndex: st.questionIndex(),
		Timestamp:     st.now().Unix(),
	})
}

// Flag records a rejected respondent message
func (st *State) Flag(content string) {
	st.session.FlaggedMessages = append(st.session.FlaggedMessages, domain.FlaggedMessage{
		Content:   content,
		Timestamp: st.now().Unix(),
	})
	st.session.FlagCount = len(st.session.FlaggedMessages)
}

// FlagLimitReached reports whether the session has used up its flags
func (st *State) FlagLimitReached() bool {
	return st.session.FlagCount >= st.session.MaxFlagsAllowed
}

// TopicTranscript returns the messages of the current topic
func (st *State) TopicTranscript() []domain.Message {
	ti := st.topicIndex()
	var msgs []domain.Message
	for _, m := range st.session.Chat {
		if m.TopicIndex == ti {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// LastInterviewerMessage returns the most recent question
func (st *State) LastInterviewerMessage() string {
	return st.lastOf(domain.RoleInterviewer)
}

// LastRespondentMessage returns the most recent accepted answer
func (st *State) LastRespondentMessage() string {
	return st.lastOf(domain.RoleRespondent)
}

func (st *State) lastOf(role domain.Role) string {
	for i := len(st.session.Chat) - 1; i >= 0; i-- {
		if st.session.Chat[i].Role == role {
			return st.session.Chat[i].Content
		}
	}
	return ""
}
