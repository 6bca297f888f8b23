package sqlguard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/apperrors"
	"github.com/pbchs/registry-assistant/pkg/llm"
)

const testSystemPrompt = "You write PostgreSQL SELECT statements."

func TestResolveValidFirstAttempt(t *testing.T) {
	mock := llm.NewMockGenerator()
	resolver := NewResolver(mock, newTestGuardrail(t), testSystemPrompt, zap.NewNop())

	sql, attempts, err := resolver.Resolve(context.Background(),
		"SELECT pra FROM properties", "list all PRAs", 1)

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "LIMIT 100;"))
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].OK)
	assert.Equal(t, 1, attempts[0].Attempt)
	assert.Equal(t, sql, attempts[0].FinalSQL)
	assert.Equal(t, 0, mock.GenerateTextCalls, "no repair call expected")
}

func TestResolveRepairsRejectedSQL(t *testing.T) {
	mock := llm.NewMockGenerator()
	mock.GenerateTextFunc = func(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
		// The repair prompt must carry the question, the bad SQL, the
		// rejection reason and the whitelist.
		assert.Contains(t, userPrompt, "who owns plot 30")
		assert.Contains(t, userPrompt, "secret_table")
		assert.Contains(t, userPrompt, "not in the allowed whitelist")
		assert.Contains(t, userPrompt, "property_addresses: flag, id, initial_plot_size")
		return "SELECT pra FROM properties;", nil
	}
	resolver := NewResolver(mock, newTestGuardrail(t), testSystemPrompt, zap.NewNop())

	sql, attempts, err := resolver.Resolve(context.Background(),
		"SELECT x FROM secret_table", "who owns plot 30", 1)

	require.NoError(t, err)
	assert.Contains(t, sql, "properties")
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].OK)
	assert.Contains(t, attempts[0].Error, "secret_table")
	assert.True(t, attempts[1].OK)
	assert.Equal(t, 1, mock.GenerateTextCalls)
}

func TestResolveExhaustsRetries(t *testing.T) {
	mock := llm.NewMockGenerator()
	mock.GenerateTextFunc = func(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
		return "DROP TABLE properties;", nil
	}
	resolver := NewResolver(mock, newTestGuardrail(t), testSystemPrompt, zap.NewNop())

	_, attempts, err := resolver.Resolve(context.Background(),
		"DELETE FROM properties", "remove everything", 2)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRepairExhausted))
	assert.Len(t, attempts, 3)
	for _, a := range attempts {
		assert.False(t, a.OK)
	}
	assert.Equal(t, 2, mock.GenerateTextCalls)
}

func TestResolveZeroRetries(t *testing.T) {
	mock := llm.NewMockGenerator()
	resolver := NewResolver(mock, newTestGuardrail(t), testSystemPrompt, zap.NewNop())

	_, attempts, err := resolver.Resolve(context.Background(),
		"SELECT x FROM secret_table", "q", 0)

	require.Error(t, err)
	assert.Len(t, attempts, 1)
	assert.Equal(t, 0, mock.GenerateTextCalls)
}

func TestRepairFromExecutionError(t *testing.T) {
	mock := llm.NewMockGenerator()
	mock.GenerateTextFunc = func(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
		assert.Contains(t, userPrompt, "operator does not exist: jsonb = text")
		return "SELECT sd.signing_date FROM sale_deeds sd;", nil
	}
	resolver := NewResolver(mock, newTestGuardrail(t), testSystemPrompt, zap.NewNop())

	sql, err := resolver.RepairFromExecutionError(context.Background(),
		"SELECT sd.signing_date FROM sale_deeds sd WHERE sd.signing_date = '2001'",
		"deeds signed in 2001",
		"operator does not exist: jsonb = text")

	require.NoError(t, err)
	assert.Contains(t, sql, "sale_deeds")
}

func TestRepairFromExecutionErrorStillGuarded(t *testing.T) {
	mock := llm.NewMockGenerator()
	mock.GenerateTextFunc = func(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
		return "DROP TABLE sale_deeds;", nil
	}
	resolver := NewResolver(mock, newTestGuardrail(t), testSystemPrompt, zap.NewNop())

	_, err := resolver.RepairFromExecutionError(context.Background(),
		"SELECT sd.signing_date FROM sale_deeds sd", "q", "boom")

	var rejection *RejectionError
	require.Error(t, err)
	assert.True(t, errors.As(err, &rejection))
}
