package domain

// BeginRequest starts an interview session
type BeginRequest struct {
	InterviewID string `json:"interview_id" validate:"required,max=128"`
	SessionID   string `json:"session_id" validate:"omitempty,max=128,excludesall=/\\"`
}

// NextRequest submits a respondent message
type NextRequest struct {
	SessionID   string `json:"session_id" validate:"required,max=128,excludesall=/\\"`
	UserMessage string `json:"user_message" validate:"required"`
}

// TurnStatus tells the client why a reply was produced
type TurnStatus string

const (
	StatusStarted    TurnStatus = "started"
	StatusQuestion   TurnStatus = "question"
	StatusNotStarted TurnStatus = "not_started"
	StatusTerminated TurnStatus = "terminated"
	StatusOffTopic   TurnStatus = "off_topic"
	StatusFlagged    TurnStatus = "flagged"
	StatusFinished   TurnStatus = "finished"
)

// TurnResult is the reply of begin and next
type TurnResult struct {
	SessionID  string     `json:"session_id"`
	Message    string     `json:"message"`
	Status     TurnStatus `json:"status"`
	Terminated bool       `json:"terminated"`
}
