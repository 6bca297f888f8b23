// Package repositories provides data access for chat history.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pbchs/registry-assistant/pkg/database"
	"github.com/pbchs/registry-assistant/pkg/models"
)

// HistoryRepository persists conversation turns per user and thread.
type HistoryRepository interface {
	// LastMessages returns up to k turns, oldest first.
	LastMessages(ctx context.Context, userID, threadID string, k int) ([]models.Turn, error)
	// AddExchange stores one user/assistant pair and prunes the thread
	// down to the retention cap.
	AddExchange(ctx context.Context, userID, threadID, userMessage, assistantMessage string) error
}

type historyRepository struct {
	db           *database.DB
	maxPerThread int
}

// NewHistoryRepository creates a HistoryRepository. maxPerThread caps
// how many rows one user/thread keeps; older rows are deleted on write.
func NewHistoryRepository(db *database.DB, maxPerThread int) HistoryRepository {
	return &historyRepository{db: db, maxPerThread: maxPerThread}
}

var _ HistoryRepository = (*historyRepository)(nil)

func (r *historyRepository) LastMessages(ctx context.Context, userID, threadID string, k int) ([]models.Turn, error) {
	query := `
		SELECT role, content, created_at
		FROM chat_history
		WHERE user_id = $1 AND thread_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.Pool.Query(ctx, query, userID, resolveThread(userID, threadID), k)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat history row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}

	// The query returns newest first; callers want oldest first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (r *historyRepository) AddExchange(ctx context.Context, userID, threadID, userMessage, assistantMessage string) error {
	thread := resolveThread(userID, threadID)

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO chat_history (id, user_id, thread_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now()
	if _, err := tx.Exec(ctx, insert,
		uuid.New(), userID, thread, models.RoleUser, userMessage, now); err != nil {
		return fmt.Errorf("failed to save user message: %w", err)
	}
	// The assistant row sorts after the user row even within the same
	// microsecond.
	if _, err := tx.Exec(ctx, insert,
		uuid.New(), userID, thread, models.RoleAssistant, assistantMessage, now.Add(time.Microsecond)); err != nil {
		return fmt.Errorf("failed to save assistant message: %w", err)
	}

	prune := `
		DELETE FROM chat_history
		WHERE user_id = $1 AND thread_id = $2
		  AND id NOT IN (
			SELECT id FROM chat_history
			WHERE user_id = $1 AND thread_id = $2
			ORDER BY created_at DESC
			LIMIT $3
		  )`
	if _, err := tx.Exec(ctx, prune, userID, thread, r.maxPerThread); err != nil {
		return fmt.Errorf("failed to prune chat history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit history transaction: %w", err)
	}
	return nil
}

// resolveThread falls back to the user id when no thread id was given,
// so a bare CLI session still gets a stable thread.
func resolveThread(userID, threadID string) string {
	if threadID == "" {
		return userID
	}
	return threadID
}
