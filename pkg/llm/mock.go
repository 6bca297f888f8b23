package llm

import "context"

// MockGenerator is a configurable mock for testing LLM functionality.
// Set the function fields to control behavior in tests.
type MockGenerator struct {
	// GenerateTextFunc is called when GenerateText is invoked.
	// If nil, returns empty string and nil error.
	GenerateTextFunc func(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)

	// GenerateJSONFunc is called when GenerateJSON is invoked.
	// If nil, returns "{}" and nil error.
	GenerateJSONFunc func(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)

	// GenerateStreamFunc is called when GenerateStream is invoked.
	// If nil, falls back to GenerateTextFunc delivered as one token.
	GenerateStreamFunc func(ctx context.Context, systemPrompt, userPrompt string, temperature float64, onToken func(string)) (string, error)

	// CreateEmbeddingsFunc is called when CreateEmbeddings is invoked.
	// If nil, returns nil slice and nil error.
	CreateEmbeddingsFunc func(ctx context.Context, inputs []string) ([][]float32, error)

	// Call tracking for verification
	GenerateTextCalls     int
	GenerateJSONCalls     int
	GenerateStreamCalls   int
	CreateEmbeddingsCalls int
}

// NewMockGenerator creates a new mock with sensible defaults.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateText implements Generator.
func (m *MockGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	m.GenerateTextCalls++
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, systemPrompt, userPrompt, temperature)
	}
	return "", nil
}

// GenerateJSON implements Generator.
func (m *MockGenerator) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	m.GenerateJSONCalls++
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, systemPrompt, userPrompt, temperature)
	}
	return "{}", nil
}

// GenerateStream implements Generator.
func (m *MockGenerator) GenerateStream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, onToken func(string)) (string, error) {
	m.GenerateStreamCalls++
	if m.GenerateStreamFunc != nil {
		return m.GenerateStreamFunc(ctx, systemPrompt, userPrompt, temperature, onToken)
	}
	text := ""
	if m.GenerateTextFunc != nil {
		var err error
		text, err = m.GenerateTextFunc(ctx, systemPrompt, userPrompt, temperature)
		if err != nil {
			return "", err
		}
	}
	if onToken != nil && text != "" {
		onToken(text)
	}
	return text, nil
}

// CreateEmbedding implements Embedder.
func (m *MockGenerator) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	embeddings, err := m.CreateEmbeddings(ctx, []string{input})
	if err != nil || len(embeddings) == 0 {
		return nil, err
	}
	return embeddings[0], nil
}

// CreateEmbeddings implements Embedder.
func (m *MockGenerator) CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	m.CreateEmbeddingsCalls++
	if m.CreateEmbeddingsFunc != nil {
		return m.CreateEmbeddingsFunc(ctx, inputs)
	}
	return nil, nil
}

// Reset clears call tracking counters.
func (m *MockGenerator) Reset() {
	m.GenerateTextCalls = 0
	m.GenerateJSONCalls = 0
	m.GenerateStreamCalls = 0
	m.CreateEmbeddingsCalls = 0
}

var (
	_ Generator = (*MockGenerator)(nil)
	_ Embedder  = (*MockGenerator)(nil)
)
