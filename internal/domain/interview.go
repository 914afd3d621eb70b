package domain

// InterviewPlan is the configured structure of one interview.
type InterviewPlan struct {
	ID                   string
	Name                 string
	Description          string
	OpeningQuestion      string
	Topics               []Topic
	ClosingQuestions     []string
	MaxFlagsAllowed      int
	StoreFlaggedMessages bool
	ModerateAnswers      bool
	ModerateQuestions    bool
	Summarize            bool
	Messages             PlanMessages
}

// PlanMessages are the fixed replies for non-question turns.
type PlanMessages struct {
	NotStarted     string
	Termination    string
	Flagged        string
	OffTopic       string
	EndOfInterview string
}

// InterviewInfo describes a configured interview to clients.
type InterviewInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Topics      int    `json:"topics"`
}
