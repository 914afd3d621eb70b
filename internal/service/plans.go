package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Rrens/ai-interviewer/internal/config"
	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/Rrens/ai-interviewer/internal/interview"
	"github.com/Rrens/ai-interviewer/internal/llm"
)

// Task names of an interview plan
const (
	TaskSummary    = "summary"
	TaskTransition = "transition"
	TaskProbe      = "probe"
	TaskRelevance  = "relevance"
)

// DefaultNotStartedMessage is used when no plan configures its own
const DefaultNotStartedMessage = "The interview has not been started. Please reload the page.---END---"

// TaskSpec is a parsed prompt template plus the model settings of one task
type TaskSpec struct {
	Template    *llm.Template
	Provider    string
	Model       string
	System      string
	MaxTokens   int
	Temperature float64
	Label       string
}

// Plan is an interview plan with its prompt tasks
type Plan struct {
	domain.InterviewPlan
	Tasks  map[string]TaskSpec
	Safety interview.SafetyPolicy
}

// HasTask reports whether the plan configures the named task
func (p *Plan) HasTask(name string) bool {
	_, ok := p.Tasks[name]
	return ok
}

// Task renders the named task with b
func (p *Plan) Task(name string, b llm.Bindings) (llm.Task, error) {
	spec, ok := p.Tasks[name]
	if !ok {
		return llm.Task{}, fmt.Errorf("interview %s has no %s task", p.ID, name)
	}

	prompt, err := spec.Template.Render(b)
	if err != nil {
		return llm.Task{}, err
	}

	return llm.Task{
		Name:        name,
		Provider:    spec.Provider,
		Model:       spec.Model,
		System:      spec.System,
		Prompt:      prompt,
		MaxTokens:   spec.MaxTokens,
		Temperature: spec.Temperature,
		Label:       spec.Label,
	}, nil
}

// PlanCatalog holds every configured interview by lowercase id
type PlanCatalog struct {
	plans map[string]*Plan
}

type catalogOptions struct {
	moderator bool
}

// CatalogOption configures NewPlanCatalog
type CatalogOption func(*catalogOptions)

// ModeratorAvailable tells the catalog whether a moderation endpoint is
// configured. Plans that moderate questions are rejected without one.
func ModeratorAvailable(ok bool) CatalogOption {
	return func(o *catalogOptions) {
		o.moderator = ok
	}
}

// NewPlanCatalog validates the configured interviews and parses their prompts
func NewPlanCatalog(interviews map[string]config.InterviewConfig, opts ...CatalogOption) (*PlanCatalog, error) {
	o := catalogOptions{moderator: true}
	for _, opt := range opts {
		opt(&o)
	}

	catalog := &PlanCatalog{plans: make(map[string]*Plan, len(interviews))}

	for id, ic := range interviews {
		plan, err := buildPlan(strings.ToLower(id), ic)
		if err != nil {
			return nil, err
		}
		if plan.ModerateQuestions && !o.moderator {
			return nil, fmt.Errorf("interview %s: moderate_questions needs a moderation provider", plan.ID)
		}
		catalog.plans[plan.ID] = plan
	}

	return catalog, nil
}

func buildPlan(id string, ic config.InterviewConfig) (*Plan, error) {
	if ic.FirstQuestion == "" {
		return nil, fmt.Errorf("interview %s: first_question is required", id)
	}
	if ic.MaxFlagsAllowed < 1 {
		return nil, fmt.Errorf("interview %s: max_flags_allowed must be at least 1", id)
	}

	topics := make([]domain.Topic, len(ic.InterviewPlan))
	needsProbe := false
	for i, t := range ic.InterviewPlan {
		if t.Length < 1 {
			return nil, fmt.Errorf("interview %s: topic %d length must be at least 1", id, i+1)
		}
		topics[i] = domain.Topic{Text: t.Topic, RequiredProbeCount: t.Length}
		needsProbe = needsProbe || t.Length > 1
	}

	safety := interview.DefaultSafetyPolicy()
	if v := ic.Safety.MinChatLength; v != nil {
		if *v < 0 {
			return nil, fmt.Errorf("interview %s: safety.min_chat_length must not be negative", id)
		}
		safety.MinChatLength = *v
	}
	if v := ic.Safety.CodeThreshold; v != nil {
		if *v < 0 {
			return nil, fmt.Errorf("interview %s: safety.code_threshold must not be negative", id)
		}
		safety.CodeThreshold = *v
	}

	name := ic.Name
	if name == "" {
		name = id
	}

	plan := &Plan{
		InterviewPlan: domain.InterviewPlan{
			ID:                   id,
			Name:                 name,
			Description:          ic.Description,
			OpeningQuestion:      ic.FirstQuestion,
			Topics:               topics,
			ClosingQuestions:     append([]string(nil), ic.ClosingQuestions...),
			MaxFlagsAllowed:      ic.MaxFlagsAllowed,
			StoreFlaggedMessages: ic.StoreFlaggedMessages,
			ModerateAnswers:      ic.ModerateAnswers,
			ModerateQuestions:    ic.ModerateQuestions,
			Summarize:            ic.Summarize,
			Messages: domain.PlanMessages{
				NotStarted:     ic.Messages.NotStarted,
				Termination:    ic.Messages.Termination,
				Flagged:        ic.Messages.Flagged,
				OffTopic:       ic.Messages.OffTopic,
				EndOfInterview: ic.Messages.EndOfInterview,
			},
		},
		Tasks:  make(map[string]TaskSpec, len(ic.Tasks)),
		Safety: safety,
	}
	if plan.Messages.NotStarted == "" {
		plan.Messages.NotStarted = DefaultNotStartedMessage
	}

	for name, tc := range ic.Tasks {
		name = strings.ToLower(name)
		switch name {
		case TaskSummary, TaskTransition, TaskProbe, TaskRelevance:
		default:
			return nil, fmt.Errorf("interview %s: unknown task %q", id, name)
		}

		tmpl, err := llm.ParseTemplate(id+"."+name, tc.Prompt)
		if err != nil {
			return nil, fmt.Errorf("interview %s: %w", id, err)
		}
		plan.Tasks[name] = TaskSpec{
			Template:    tmpl,
			Provider:    tc.Provider,
			Model:       tc.Model,
			System:      tc.System,
			MaxTokens:   tc.MaxTokens,
			Temperature: tc.Temperature,
			Label:       tc.Label,
		}
	}

	required := map[string]bool{
		TaskProbe:      needsProbe,
		TaskTransition: len(topics) > 1,
		TaskRelevance:  ic.ModerateAnswers,
	}
	for name, needed := range required {
		if needed && !plan.HasTask(name) {
			return nil, fmt.Errorf("interview %s: %s task is required", id, name)
		}
	}

	return plan, nil
}

// Lookup finds a plan by id, ignoring case
func (c *PlanCatalog) Lookup(id string) (*Plan, error) {
	plan, ok := c.plans[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownInterview, id)
	}
	return plan, nil
}

// Interviews lists the configured plans sorted by id
func (c *PlanCatalog) Interviews() []domain.InterviewInfo {
	infos := make([]domain.InterviewInfo, 0, len(c.plans))
	for _, p := range c.plans {
		infos = append(infos, domain.InterviewInfo{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Topics:      len(p.Topics),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// NotStartedMessage is the reply for unknown sessions. The session does not
// exist yet, so the first plan in id order supplies the wording.
func (c *PlanCatalog) NotStartedMessage() string {
	infos := c.Interviews()
	if len(infos) == 0 {
		return DefaultNotStartedMessage
	}
	return c.plans[infos[0].ID].Messages.NotStarted
}
