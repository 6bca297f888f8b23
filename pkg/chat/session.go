package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/config"
	"github.com/pbchs/registry-assistant/pkg/database"
	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/memory"
	"github.com/pbchs/registry-assistant/pkg/models"
	"github.com/pbchs/registry-assistant/pkg/notes"
	"github.com/pbchs/registry-assistant/pkg/prompts"
	"github.com/pbchs/registry-assistant/pkg/registry"
	"github.com/pbchs/registry-assistant/pkg/repositories"
	"github.com/pbchs/registry-assistant/pkg/resolve"
	"github.com/pbchs/registry-assistant/pkg/retrieval"
	"github.com/pbchs/registry-assistant/pkg/sqlguard"
)

// Deps bundles the collaborators one session needs. All fields are
// required unless noted.
type Deps struct {
	Generator llm.Generator
	Index     *retrieval.Index
	Runner    database.SelectRunner
	Resolver  *resolve.Resolver
	Repair    *sqlguard.Resolver
	Maps      *registry.Maps
	Notes     *notes.Generator
	History   repositories.HistoryRepository
	Config    config.ChatConfig
	Logger    *zap.Logger
}

// wizardStep names the pending note-wizard input.
type wizardStep string

const (
	wizardStepPlot wizardStep = "plot"
	wizardStepRoad wizardStep = "road"
)

// wizardState is the ephemeral note-summary wizard. Never persisted:
// a process restart simply drops a half-finished wizard.
type wizardState struct {
	active bool
	step   wizardStep
	plot   string
}

func (w *wizardState) reset() {
	*w = wizardState{}
}

// Session owns the per-conversation mutable state: the wizard, the
// focus memory and the turn lock. One Session per user/thread.
type Session struct {
	mu sync.Mutex

	userID   string
	threadID string

	deps       Deps
	classifier *Classifier
	focus      *memory.Focus
	wizard     wizardState
	logger     *zap.Logger
}

// NewSession creates a session for one user/thread pair.
func NewSession(userID, threadID string, deps Deps) *Session {
	logger := deps.Logger.Named("chat").With(
		zap.String("user_id", userID),
		zap.String("thread_id", threadID))
	return &Session{
		userID:     userID,
		threadID:   threadID,
		deps:       deps,
		classifier: NewClassifier(deps.Generator, deps.Logger),
		focus:      memory.NewFocus(),
		logger:     logger,
	}
}

// Manager hands out sessions keyed by user and thread, creating them
// on first use.
type Manager struct {
	mu       sync.Mutex
	deps     Deps
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for the given user/thread, creating it
// if needed.
func (m *Manager) Session(userID, threadID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userID + "\x00" + threadID
	if s, ok := m.sessions[key]; ok {
		return s
	}
	s := NewSession(userID, threadID, m.deps)
	m.sessions[key] = s
	return s
}

// Run executes one conversation turn to completion. onToken, when
// non-nil, receives streamed answer fragments for the SQL flow.
// Overlapping turns for the same session are serialized.
func (s *Session) Run(ctx context.Context, userQuery string, onToken func(string)) (*models.TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A wizard in progress consumes the message outright, bypassing
	// classification.
	if s.wizard.active {
		switch s.wizard.step {
		case wizardStepPlot:
			return s.collectPlot(ctx, userQuery), nil
		case wizardStepRoad:
			return s.collectRoad(ctx, userQuery), nil
		}
		s.wizard.reset()
	}

	history := s.loadHistory(ctx)
	cls := s.classifier.Classify(ctx, userQuery, history)

	if isMapTrigger(userQuery) {
		result := s.mapLookup(ctx, userQuery)
		s.saveHistory(ctx, cls.Label, userQuery, result)
		return result, nil
	}

	if isNoteSummaryTrigger(userQuery) {
		plot, road := resolve.ParsePlotRoadFromText(userQuery)
		if plot != "" && road != "" {
			s.wizard.reset()
			return s.noteDirect(ctx, userQuery), nil
		}
		return s.startNoteWizard(), nil
	}

	switch cls.Label {
	case models.LabelSmallTalk:
		return s.handleSmallTalk(ctx, userQuery), nil
	case models.LabelIrrelevant:
		return s.handleIrrelevant(), nil
	default:
		return s.runPropertyTalk(ctx, userQuery, history, onToken), nil
	}
}

// loadHistory is best-effort: a storage hiccup degrades to an empty
// window instead of failing the turn.
func (s *Session) loadHistory(ctx context.Context) []models.Turn {
	history, err := s.deps.History.LastMessages(ctx, s.userID, s.threadID, s.deps.Config.HistoryWindow)
	if err != nil {
		s.logger.Warn("failed to load history", zap.Error(err))
		return nil
	}
	return history
}

// saveHistory persists the exchange when rows were produced, or
// unconditionally for non-property labels. storedUserMessage is the
// standalone question for the SQL flow and the raw message otherwise.
func (s *Session) saveHistory(ctx context.Context, label models.ClassificationLabel, storedUserMessage string, result *models.TurnResult) {
	if len(result.Rows) == 0 && label == models.LabelPropertyTalk {
		return
	}
	if err := s.deps.History.AddExchange(ctx, s.userID, s.threadID, storedUserMessage, result.Answer); err != nil {
		s.logger.Warn("failed to save history", zap.Error(err))
	}
}

func (s *Session) handleSmallTalk(ctx context.Context, userQuery string) *models.TurnResult {
	answer, err := s.deps.Generator.GenerateText(ctx, prompts.SmallTalkSystemPrompt, userQuery, 0.7)
	if err != nil || answer == "" {
		s.logger.Warn("small talk generation failed", zap.Error(err))
		answer = "Hello!\nAsk anything related to Punjabi Bagh Housing Society"
	}
	return &models.TurnResult{
		Answer: answer,
		SQL:    "-- NO SQL (small_talk)",
	}
}

// handleIrrelevant returns the fixed refusal. No model call: the reply
// must be identical no matter how the request is phrased, including
// mutation attempts.
func (s *Session) handleIrrelevant() *models.TurnResult {
	return &models.TurnResult{
		Answer: prompts.OutOfScopeReply,
		SQL:    "-- NO SQL (irrelevant_question)",
	}
}
