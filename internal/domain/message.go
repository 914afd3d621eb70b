package domain

// Role identifies the author of a chat message
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleRespondent  Role = "respondent"
)

// Message is one entry of a session's chat
type Message struct {
	Role          Role   `json:"role"`
	Content       string `json:"content"`
	TopicIndex    int    `json:"topic_index"`
	QuestionIndex int    `json:"question_index"`
	Timestamp     int64  `json:"timestamp"`
}

// TranscriptRow is one message in long form, used for exports
type TranscriptRow struct {
	SessionID     string `json:"session_id" yaml:"session_id"`
	InterviewID   string `json:"interview_id" yaml:"interview_id"`
	Order         int    `json:"order" yaml:"order"`
	Role          Role   `json:"role" yaml:"role"`
	Content       string `json:"content" yaml:"content"`
	TopicIndex    int    `json:"topic_index" yaml:"topic_index"`
	QuestionIndex int    `json:"question_index" yaml:"question_index"`
	Timestamp     int64  `json:"timestamp" yaml:"timestamp"`
}
