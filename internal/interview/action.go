package interview

import "github.com/Rrens/ai-interviewer/internal/domain"

// ActionKind enumerates what the interviewer does next
type ActionKind string

const (
	KindProbe      ActionKind = "probe"
	KindTransition ActionKind = "transition"
	KindClose      ActionKind = "close"
	KindFinish     ActionKind = "finish"
)

// Action is the decision returned by ComputeNextAction. Each variant carries
// only what is needed to realize it.
type Action interface {
	Kind() ActionKind
}

// Probe asks another question within the current topic
type Probe struct {
	Topic      domain.Topic
	TopicIndex int
}

// Transition moves from one topic to the next
type Transition struct {
	From    domain.Topic
	To      domain.Topic
	ToIndex int
}

// Close asks a pre-authored closing question
type Close struct {
	Question string
}

// Finish ends the interview
type Finish struct{}

func (Probe) Kind() ActionKind      { return KindProbe }
func (Transition) Kind() ActionKind { return KindTransition }
func (Close) Kind() ActionKind      { return KindClose }
func (Finish) Kind() ActionKind     { return KindFinish }

// Phase is the derived sub-phase of a session
type Phase string

const (
	PhaseProbing                Phase = "PROBING"
	PhaseTransitioning          Phase = "TRANSITIONING"
	PhaseClosing                Phase = "CLOSING"
	PhaseDonePendingTermination Phase = "DONE_PENDING_TERMINATION"
	PhaseTerminated             Phase = "TERMINATED"
)
