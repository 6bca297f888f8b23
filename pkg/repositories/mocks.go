package repositories

import (
	"context"

	"github.com/pbchs/registry-assistant/pkg/models"
)

// MockHistoryRepository is a configurable in-memory mock for tests.
// Set the function fields to override behavior; by default it records
// exchanges and serves them back.
type MockHistoryRepository struct {
	LastMessagesFunc func(ctx context.Context, userID, threadID string, k int) ([]models.Turn, error)
	AddExchangeFunc  func(ctx context.Context, userID, threadID, userMessage, assistantMessage string) error

	// Turns holds the recorded history when the default behavior is used.
	Turns []models.Turn

	LastMessagesCalls int
	AddExchangeCalls  int
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{}
}

var _ HistoryRepository = (*MockHistoryRepository)(nil)

func (m *MockHistoryRepository) LastMessages(ctx context.Context, userID, threadID string, k int) ([]models.Turn, error) {
	m.LastMessagesCalls++
	if m.LastMessagesFunc != nil {
		return m.LastMessagesFunc(ctx, userID, threadID, k)
	}
	if len(m.Turns) > k {
		return m.Turns[len(m.Turns)-k:], nil
	}
	return m.Turns, nil
}

func (m *MockHistoryRepository) AddExchange(ctx context.Context, userID, threadID, userMessage, assistantMessage string) error {
	m.AddExchangeCalls++
	if m.AddExchangeFunc != nil {
		return m.AddExchangeFunc(ctx, userID, threadID, userMessage, assistantMessage)
	}
	m.Turns = append(m.Turns,
		models.Turn{Role: models.RoleUser, Content: userMessage},
		models.Turn{Role: models.RoleAssistant, Content: assistantMessage},
	)
	return nil
}
