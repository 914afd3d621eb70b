package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/Rrens/ai-interviewer/internal/interview"
	"github.com/Rrens/ai-interviewer/internal/llm"
)

// TextGenerator produces interviewer questions and judges respondent answers
type TextGenerator interface {
	Complete(ctx context.Context, tasks map[string]llm.Task) (map[string]string, error)
	Moderate(ctx context.Context, text string) (bool, error)
	Relevance(ctx context.Context, task llm.Task) (bool, error)
}

// InterviewService drives interview turns: it loads a session, screens the
// respondent message, asks the state machine what to do next, realizes that
// with the generator and persists the result.
type InterviewService struct {
	store     domain.SessionStore
	generator TextGenerator
	plans     *PlanCatalog
	now       func() time.Time
}

// Option configures an InterviewService
type Option func(*InterviewService)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *InterviewService) {
		s.now = now
	}
}

// NewInterviewService creates a new interview service
func NewInterviewService(store domain.SessionStore, generator TextGenerator, plans *PlanCatalog, opts ...Option) *InterviewService {
	s := &InterviewService{
		store:     store,
		generator: generator,
		plans:     plans,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin creates a session for interviewID and returns the opening question.
// An empty sessionID gets a generated one.
func (s *InterviewService) Begin(ctx context.Context, interviewID, sessionID string) (*domain.TurnResult, error) {
	plan, err := s.plans.Lookup(interviewID)
	if err != nil {
		return nil, err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	_, err = s.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionExists, sessionID)
	case !errors.Is(err, domain.ErrSessionNotFound):
		return nil, fmt.Errorf("failed to check session: %w", err)
	}

	session := interview.NewSession(sessionID, &plan.InterviewPlan, s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	log.Info().
		Str("session_id", sessionID).
		Str("interview_id", plan.ID).
		Msg("Interview started")

	return &domain.TurnResult{
		SessionID: sessionID,
		Message:   plan.OpeningQuestion,
		Status:    domain.StatusStarted,
	}, nil
}

// Next handles one respondent message. Flow conditions and safety
// rejections come back as results; only collaborator failures and broken
// sessions are errors, in which case nothing from this turn is saved.
func (s *InterviewService) Next(ctx context.Context, sessionID, userMessage string) (*domain.TurnResult, error) {
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return &domain.TurnResult{
				SessionID: sessionID,
				Message:   s.plans.NotStartedMessage(),
				Status:    domain.StatusNotStarted,
			}, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	plan, err := s.plans.Lookup(session.InterviewID)
	if err != nil {
		return nil, err
	}

	st, err := interview.Resume(session, interview.WithClock(s.now))
	if err != nil {
		return nil, err
	}

	if st.Terminated() {
		return s.result(st, plan.Messages.Termination, domain.StatusTerminated), nil
	}

	if res, err := s.screen(ctx, st, plan, userMessage); res != nil || err != nil {
		return res, err
	}

	if err := st.RecordRespondentMessage(userMessage); err != nil {
		return nil, err
	}

	action := st.ComputeNextAction()
	b := s.bindings(st, userMessage)

	var (
		question  string
		summary   string
		generated bool
	)
	switch a := action.(type) {
	case interview.Probe:
		task, err := plan.Task(TaskProbe, b)
		if err != nil {
			return nil, err
		}
		out, err := s.generator.Complete(ctx, map[string]llm.Task{TaskProbe: task})
		if err != nil {
			return nil, fmt.Errorf("failed to generate probe: %w", err)
		}
		question, generated = out[TaskProbe], true

	case interview.Transition:
		tasks := make(map[string]llm.Task, 2)
		if tasks[TaskTransition], err = plan.Task(TaskTransition, b); err != nil {
			return nil, err
		}
		if plan.Summarize && plan.HasTask(TaskSummary) {
			if tasks[TaskSummary], err = plan.Task(TaskSummary, b); err != nil {
				return nil, err
			}
		}
		out, err := s.generator.Complete(ctx, tasks)
		if err != nil {
			return nil, fmt.Errorf("failed to generate transition: %w", err)
		}
		question, summary, generated = out[TaskTransition], out[TaskSummary], true

	case interview.Close:
		question = a.Question

	case interview.Finish:
		return s.finish(ctx, st, plan, domain.ReasonEndOfInterview)
	}

	if question == "" {
		return nil, fmt.Errorf("%w: empty %s question", llm.ErrMalformedGeneration, action.Kind())
	}

	if generated && plan.ModerateQuestions {
		flagged, err := s.generator.Moderate(ctx, question)
		if err != nil {
			return nil, err
		}
		if flagged {
			log.Warn().Str("session_id", sessionID).Msg("Generated question flagged by moderation")
			return s.finish(ctx, st, plan, domain.ReasonQuestionFlagged)
		}
	}

	switch action.(type) {
	case interview.Probe:
		st.ApplyProbe()
	case interview.Transition:
		st.ApplyTransition(summary)
	case interview.Close:
		st.ApplyClose()
	}

	if err := st.RecordInterviewerMessage(question); err != nil {
		return nil, err
	}
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("action", string(action.Kind())).
		Int("topic_index", session.CurrentTopicIndex).
		Int("question_index", session.CurrentQuestionIndex).
		Msg("Turn completed")

	return s.result(st, question, domain.StatusQuestion), nil
}

// screen applies the plan's safety policy. A non-nil result ends the turn.
func (s *InterviewService) screen(ctx context.Context, st *interview.State, plan *Plan, text string) (*domain.TurnResult, error) {
	session := st.Session()

	reason := plan.Safety.Screen(session, text)
	if reason != "" {
		s.flag(st, plan, text, reason)
	}

	if st.FlagLimitReached() {
		if err := st.Terminate(domain.ReasonFlagLimitExceeded); err != nil {
			return nil, err
		}
		if err := s.save(ctx, st); err != nil {
			return nil, err
		}
		log.Info().
			Str("session_id", session.SessionID).
			Int("flag_count", session.FlagCount).
			Msg("Interview terminated: flag limit exceeded")
		return s.result(st, plan.Messages.Flagged, domain.StatusFlagged), nil
	}

	if reason == "" && plan.ModerateAnswers {
		task, err := plan.Task(TaskRelevance, s.bindings(st, text))
		if err != nil {
			return nil, err
		}
		relevant, err := s.generator.Relevance(ctx, task)
		if err != nil {
			return nil, err
		}
		if !relevant {
			reason = interview.FlagIrrelevant
			s.flag(st, plan, text, reason)
		}
	}

	if reason == "" {
		return nil, nil
	}

	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	return s.result(st, plan.Messages.OffTopic, domain.StatusOffTopic), nil
}

func (s *InterviewService) flag(st *interview.State, plan *Plan, text, reason string) {
	content := ""
	if plan.StoreFlaggedMessages {
		content = text
	}
	st.Flag(content)

	log.Info().
		Str("session_id", st.Session().SessionID).
		Str("reason", reason).
		Int("flag_count", st.Session().FlagCount).
		Msg("Respondent message flagged")
}

func (s *InterviewService) finish(ctx context.Context, st *interview.State, plan *Plan, reason string) (*domain.TurnResult, error) {
	if err := st.Terminate(reason); err != nil {
		return nil, err
	}
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", st.Session().SessionID).
		Str("reason", reason).
		Msg("Interview finished")

	return s.result(st, plan.Messages.EndOfInterview, domain.StatusFinished), nil
}

func (s *InterviewService) save(ctx context.Context, st *interview.State) error {
	session := st.Session()
	session.UpdatedAt = s.now().Unix()
	if err := s.store.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *InterviewService) result(st *interview.State, message string, status domain.TurnStatus) *domain.TurnResult {
	return &domain.TurnResult{
		SessionID:  st.Session().SessionID,
		Message:    message,
		Status:     status,
		Terminated: st.Terminated(),
	}
}

// bindings fills every placeholder from the session as it currently stands
func (s *InterviewService) bindings(st *interview.State, answer string) llm.Bindings {
	session := st.Session()

	current, next := "", ""
	if t, ok := st.CurrentTopic(); ok {
		current = t.Text
	}
	if t, ok := st.NextTopic(); ok {
		next = t.Text
	}

	return llm.Bindings{
		llm.PlaceholderTopics:              interview.FormatTopics(session.TopicPlan),
		llm.PlaceholderSummary:             session.Summary,
		llm.PlaceholderCurrentTopic:        current,
		llm.PlaceholderNextInterviewTopic:  next,
		llm.PlaceholderCurrentTopicHistory: interview.FormatTranscript(st.TopicTranscript()),
		llm.PlaceholderQuestion:            st.LastInterviewerMessage(),
		llm.PlaceholderAnswer:              answer,
		llm.PlaceholderTopicNumber:         strconv.Itoa(session.CurrentTopicIndex + 1),
		llm.PlaceholderQuestionNumber:      strconv.Itoa(session.CurrentQuestionIndex),
	}
}

// Load returns the stored session document
func (s *InterviewService) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.store.Load(ctx, sessionID)
}

// Delete removes a session. Deleting a missing session succeeds.
func (s *InterviewService) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	log.Info().Str("session_id", sessionID).Msg("Session deleted")
	return nil
}

// List returns every stored session id
func (s *InterviewService) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// Export flattens every session's chat into transcript rows, sessions in
// id order and messages in chat order
func (s *InterviewService) Export(ctx context.Context) ([]domain.TranscriptRow, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sort.Strings(ids)

	rows := []domain.TranscriptRow{}
	for _, id := range ids {
		session, err := s.store.Load(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				// deleted since List
				continue
			}
			return nil, fmt.Errorf("failed to load session %s: %w", id, err)
		}

		for i, m := range session.Chat {
			rows = append(rows, domain.TranscriptRow{
				SessionID:     session.SessionID,
				InterviewID:   session.InterviewID,
				Order:         i,
				Role:          m.Role,
				Content:       m.Content,
				TopicIndex:    m.TopicIndex,
				QuestionIndex: m.QuestionIndex,
				Timestamp:     m.Timestamp,
			})
		}
	}
	return rows, nil
}

// Interviews lists the configured interviews
func (s *InterviewService) Interviews() []domain.InterviewInfo {
	return s.plans.Interviews()
}
