package domain

import (
	"context"
)

// Termination reasons recorded on a session.
const (
	ReasonFlagLimitExceeded = "flag_limit_exceeded"
	ReasonEndOfInterview    = "end_of_interview"
	ReasonQuestionFlagged   = "question_flagged"
)

// Topic is one thematic block of an interview plan.
type Topic struct {
	Text               string `json:"text"`
	RequiredProbeCount int    `json:"required_probe_count"`
}

// FlaggedMessage is an audit record of a rejected respondent message.
type FlaggedMessage struct {
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Session is one respondent's interview, persisted as a single document.
//
// CurrentTopicIndex is a 0-based position in TopicPlan; len(TopicPlan) marks the
// closing phase. CurrentQuestionIndex is the 1-based ordinal of the open question
// within the current topic. CurrentClosingIndex is the 0-based position of the next
// closing question.
type Session struct {
	SessionID            string           `json:"session_id"`
	InterviewID          string           `json:"interview_id"`
	TopicPlan            []Topic          `json:"topic_plan"`
	ClosingQuestions     []string         `json:"closing_questions"`
	Chat                 []Message        `json:"chat"`
	CurrentTopicIndex    int              `json:"current_topic_index"`
	CurrentQuestionIndex int              `json:"current_question_index"`
	CurrentClosingIndex  int              `json:"current_closing_index"`
	FlagCount            int              `json:"flag_count"`
	FlaggedMessages      []FlaggedMessage `json:"flagged_messages"`
	Summary              string           `json:"summary"`
	Terminated           bool             `json:"terminated"`
	TerminatedReason     string           `json:"terminated_reason"`
	MaxFlagsAllowed      int              `json:"max_flags_allowed"`
	CreatedAt            int64            `json:"created_at"`
	UpdatedAt            int64            `json:"updated_at"`
}

// SessionStore persists sessions as whole documents keyed by session id.
type SessionStore interface {
	// Load returns ErrSessionNotFound when no document exists for id.
	Load(ctx context.Context, id string) (*Session, error)
	// Save upserts the full document.
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
