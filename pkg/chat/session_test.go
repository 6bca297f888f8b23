package chat

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/config"
	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/notes"
	"github.com/pbchs/registry-assistant/pkg/prompts"
	"github.com/pbchs/registry-assistant/pkg/registry"
	"github.com/pbchs/registry-assistant/pkg/repositories"
	"github.com/pbchs/registry-assistant/pkg/resolve"
	"github.com/pbchs/registry-assistant/pkg/retrieval"
	"github.com/pbchs/registry-assistant/pkg/sqlguard"
)

// fakeRunner records every statement and dispatches through fn.
type fakeRunner struct {
	fn      func(sqlText string, preserveLimit bool) ([]map[string]any, error)
	queries []string
}

func (f *fakeRunner) RunSelect(_ context.Context, sqlText string, preserveLimit bool) ([]map[string]any, error) {
	f.queries = append(f.queries, sqlText)
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(sqlText, preserveLimit)
}

// registryDispatch answers the fixed lookups every flow makes and
// falls through to resultRows for generated statements.
func registryDispatch(praRows, mapRows, resultRows []map[string]any) func(string, bool) ([]map[string]any, error) {
	return func(sqlText string, _ bool) ([]map[string]any, error) {
		switch {
		case strings.Contains(sqlText, "DISTINCT TRIM(plot_no)"):
			return []map[string]any{{"val": "30"}, {"val": "28"}}, nil
		case strings.Contains(sqlText, "DISTINCT TRIM(road_no)"):
			return []map[string]any{{"val": "14"}, {"val": "6"}}, nil
		case strings.Contains(sqlText, "DISTINCT TRIM(name)"):
			return []map[string]any{{"val": "Davinder Sodhi"}}, nil
		case strings.Contains(sqlText, "FROM plot_map"):
			return mapRows, nil
		case strings.Contains(sqlText, "JOIN property_addresses pa"):
			return praRows, nil
		case strings.Contains(sqlText, "current_owners AS T1"),
			strings.Contains(sqlText, "ownership_records AS T2"),
			strings.Contains(sqlText, "initial_plot_size"),
			strings.Contains(sqlText, "share_certificates AS T2"),
			strings.Contains(sqlText, "club_memberships AS T1"):
			return nil, nil
		default:
			return resultRows, nil
		}
	}
}

func newTestSession(t *testing.T, gen *llm.MockGenerator, runner *fakeRunner) (*Session, *repositories.MockHistoryRepository) {
	t.Helper()
	logger := zap.NewNop()

	if gen.CreateEmbeddingsFunc == nil {
		gen.CreateEmbeddingsFunc = func(_ context.Context, inputs []string) ([][]float32, error) {
			vectors := make([][]float32, len(inputs))
			for i := range inputs {
				vectors[i] = []float32{1, 0}
			}
			return vectors, nil
		}
	}
	index := retrieval.NewIndex(gen, logger)
	require.NoError(t, index.Bootstrap(context.Background()))

	guard := sqlguard.NewGuardrail(sqlguard.DefaultWhitelist(), logger)
	history := repositories.NewMockHistoryRepository()

	deps := Deps{
		Generator: gen,
		Index:     index,
		Runner:    runner,
		Resolver:  resolve.NewResolver(runner, logger),
		Repair:    sqlguard.NewResolver(gen, guard, prompts.SQLGenerationSystemPrompt, logger),
		Maps:      registry.NewMaps(runner, logger),
		Notes:     notes.NewGenerator(runner, t.TempDir(), logger),
		History:   history,
		Config: config.ChatConfig{
			HistoryWindow:          6,
			MaxHistoryPerThread:    20,
			SQLSimilarityThreshold: 0.3,
			RepairMaxRetries:       1,
		},
		Logger: logger,
	}
	return NewSession("user-1", "thread-1", deps), history
}

func propertyTalkJSON(_ context.Context, _, _ string, _ float64) (string, error) {
	return `{"label":"property_talk","reason":"r"}`, nil
}

func TestWizardFlowSuccess(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.GenerateJSONFunc = propertyTalkJSON

	praRows := []map[string]any{{"pra": "30|14|Punjabi Bagh West"}}
	runner := &fakeRunner{fn: registryDispatch(praRows, nil, nil)}
	s, history := newTestSession(t, gen, runner)
	ctx := context.Background()

	r1, err := s.Run(ctx, "generate note summary", nil)
	require.NoError(t, err)
	assert.Contains(t, r1.Answer, "Step 1: Please tell me the plot number.")
	assert.Equal(t, "-- NOTE_SUMMARY_FLOW", r1.SQL)
	assert.True(t, s.wizard.active)

	r2, err := s.Run(ctx, "30", nil)
	require.NoError(t, err)
	assert.Contains(t, r2.Answer, "Got it, plot number is 30.")
	assert.Contains(t, r2.Answer, "Step 2: Please tell me the road number.")
	assert.Equal(t, wizardStepRoad, s.wizard.step)

	r3, err := s.Run(ctx, "14", nil)
	require.NoError(t, err)
	assert.Equal(t, "note summary saved;", r3.Answer)
	assert.Equal(t, "30|14|Punjabi Bagh West", r3.NotePRA)
	assert.Contains(t, r3.SQL, "-- NOTE_SUMMARY for PRA 30|14|Punjabi Bagh West")
	assert.False(t, s.wizard.active)

	_, statErr := os.Stat(r3.NotePath)
	assert.NoError(t, statErr, "note document should exist")

	assert.Zero(t, history.AddExchangeCalls, "wizard turns are never saved")
}

func TestWizardFuzzyPlotConfirmation(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.GenerateJSONFunc = propertyTalkJSON
	runner := &fakeRunner{fn: registryDispatch(nil, nil, nil)}
	s, _ := newTestSession(t, gen, runner)
	ctx := context.Background()

	_, err := s.Run(ctx, "note summary please", nil)
	require.NoError(t, err)

	// "30A" snaps to the stored "30" and the wizard says so.
	r, err := s.Run(ctx, "30A", nil)
	require.NoError(t, err)
	assert.Contains(t, r.Answer, "I interpreted plot '30A' as '30' based on existing records.")
}

func TestWizardDisambiguation(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.GenerateJSONFunc = propertyTalkJSON

	praRows := []map[string]any{
		{"pra": "30|14|Punjabi Bagh West"},
		{"pra": "30|14|Punjabi Bagh East"},
	}
	runner := &fakeRunner{fn: registryDispatch(praRows, nil, nil)}
	s, history := newTestSession(t, gen, runner)
	ctx := context.Background()

	_, err := s.Run(ctx, "generate note summary", nil)
	require.NoError(t, err)
	_, err = s.Run(ctx, "30", nil)
	require.NoError(t, err)
	r, err := s.Run(ctx, "14", nil)
	require.NoError(t, err)

	assert.Contains(t, r.Answer, "There are multiple properties for plot 30 and road 14.")
	assert.Contains(t, r.Answer, "30|14|Punjabi Bagh West, 30|14|Punjabi Bagh East")
	assert.Empty(t, r.NotePRA)
	assert.False(t, s.wizard.active, "disambiguation resets the wizard")
	assert.Zero(t, history.AddExchangeCalls)
}

func TestWizardNotFound(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.GenerateJSONFunc = propertyTalkJSON
	runner := &fakeRunner{fn: registryDispatch(nil, nil, nil)}
	s, _ := newTestSession(t, gen, runner)
	ctx := context.Background()

	_, err := s.Run(ctx, "generate note summary", nil)
	require.NoError(t, err)
	_, err = s.Run(ctx, "30", nil)
	require.NoError(t, err)
	r, err := s.Run(ctx, "14", nil)
	require.NoError(t, err)

	assert.Contains(t, r.Answer, "I couldn't find any property for plot 30 and road 14.")
	assert.Equal(t, "-- NOTE_SUMMARY_FLOW: no PRA found", r.SQL)
	assert.False(t, s.wizard.active)
}

func TestNoteDirectSingleTurn(t *testing.T) {
	gen := llm.NewMockGenerator()

	praRows := []map[string]any{{"pra": "30|14|Punjabi Bagh West"}}
	runner := &fakeRunner{fn: registryDispatch(praRows, nil, nil)}
	s, history := newTestSession(t, gen, runner)

	r, err := s.Run(context.Background(), "generate note summary for plot 30 road 14", nil)
	require.NoError(t, err)

	assert.Equal(t, "note summary saved;", r.Answer)
	assert.Equal(t, "30|14|Punjabi Bagh West", r.NotePRA)
	assert.False(t, s.wizard.active)
	assert.Zero(t, history.AddExchangeCalls)
}

func TestMapLookupSuccess(t *testing.T) {
	gen := llm.NewMockGenerator()

	praRows := []map[string]any{{"pra": "30|14|Punjabi Bagh West"}}
	mapRows := []map[string]any{
		{
			"id": "1",
			"feature": map[string]any{
				"type":     "Feature",
				"geometry": map[string]any{"type": "Polygon", "coordinates": []any{}},
			},
		},
	}
	runner := &fakeRunner{fn: registryDispatch(praRows, mapRows, nil)}
	s, history := newTestSession(t, gen, runner)

	query := "show the map of plot 30 road 14"
	r, err := s.Run(context.Background(), query, nil)
	require.NoError(t, err)

	assert.Contains(t, r.Answer, "Map geometry is available for property 30|14|Punjabi Bagh West")
	require.Len(t, r.Geometry, 1)
	assert.Equal(t, "Polygon", r.Geometry[0]["type"])

	require.Equal(t, 1, history.AddExchangeCalls, "map turns with rows are saved")
	require.Len(t, history.Turns, 2)
	assert.Equal(t, query, history.Turns[0].Content, "map flow stores the raw message")
}

func TestMapLookupNoGeometry(t *testing.T) {
	gen := llm.NewMockGenerator()

	praRows := []map[string]any{{"pra": "30|14|Punjabi Bagh West"}}
	runner := &fakeRunner{fn: registryDispatch(praRows, nil, nil)}
	s, history := newTestSession(t, gen, runner)

	r, err := s.Run(context.Background(), "show the map of plot 30 road 14", nil)
	require.NoError(t, err)

	assert.Contains(t, r.Answer, "no map geometry stored")
	assert.Empty(t, r.Geometry)
	assert.Zero(t, history.AddExchangeCalls, "no rows, property label, nothing saved")
}

func TestMapLookupUnparseable(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.GenerateJSONFunc = propertyTalkJSON
	runner := &fakeRunner{fn: registryDispatch(nil, nil, nil)}
	s, _ := newTestSession(t, gen, runner)

	r, err := s.Run(context.Background(), "show me the map of the plot please", nil)
	require.NoError(t, err)
	assert.Contains(t, r.Answer, "please tell me both the plot and road number")
	assert.Equal(t, "-- MAP_LOOKUP: could not parse plot/road", r.SQL)
}

func TestMutationIsRefusedVerbatim(t *testing.T) {
	gen := llm.NewMockGenerator()
	runner := &fakeRunner{}
	s, history := newTestSession(t, gen, runner)

	r, err := s.Run(context.Background(), "drop the ownership table", nil)
	require.NoError(t, err)

	assert.Equal(t, prompts.OutOfScopeReply, r.Answer)
	assert.Equal(t, "-- NO SQL (irrelevant_question)", r.SQL)
	assert.Zero(t, gen.GenerateTextCalls)
	assert.Zero(t, gen.GenerateJSONCalls)
	assert.Zero(t, history.AddExchangeCalls)
}

func TestSmallTalk(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.GenerateJSONFunc = func(_ context.Context, _, _ string, _ float64) (string, error) {
		return `{"label":"small_talk","reason":"greeting"}`, nil
	}
	gen.GenerateTextFunc = func(_ context.Context, systemPrompt, _ string, _ float64) (string, error) {
		require.Equal(t, prompts.SmallTalkSystemPrompt, systemPrompt)
		return "Hi!\nAsk anything related to Punjabi Bagh Housing Society", nil
	}
	runner := &fakeRunner{}
	s, history := newTestSession(t, gen, runner)

	r, err := s.Run(context.Background(), "hello, how are you", nil)
	require.NoError(t, err)

	assert.Equal(t, "Hi!\nAsk anything related to Punjabi Bagh Housing Society", r.Answer)
	assert.Equal(t, "-- NO SQL (small_talk)", r.SQL)
	assert.Zero(t, history.AddExchangeCalls)
}

const ownerSQL = "SELECT p.pra, t2.name FROM properties p " +
	"JOIN current_owners t1 ON t1.property_id = p.id " +
	"JOIN persons t2 ON t1.buyer_id = t2.id LIMIT 10;"

// propertyFlowGenerator wires the three model roles of the SQL flow.
func propertyFlowGenerator(gen *llm.MockGenerator, sqlResponse func(userPrompt string) string, finalAnswer string) {
	gen.GenerateJSONFunc = func(_ context.Context, systemPrompt, _ string, _ float64) (string, error) {
		switch {
		case strings.Contains(systemPrompt, "You extract entities"):
			return `{"plot_no":"30","road_no":"14","intent":"current_owner"}`, nil
		case strings.Contains(systemPrompt, "You normalize Punjabi Bagh property questions"):
			return `{"language":"english","normalized_query":"who is the current owner of plot 30 road 14","standalone_question":"Who is the current owner of plot 30 road 14?"}`, nil
		default:
			return `{"label":"property_talk","reason":"r"}`, nil
		}
	}
	gen.GenerateTextFunc = func(_ context.Context, systemPrompt, userPrompt string, _ float64) (string, error) {
		if systemPrompt == prompts.SQLGenerationSystemPrompt {
			return sqlResponse(userPrompt), nil
		}
		return finalAnswer, nil
	}
}

func TestPropertyFlowEndToEnd(t *testing.T) {
	gen := llm.NewMockGenerator()
	propertyFlowGenerator(gen, func(string) string { return "```sql\n" + ownerSQL + "\n```" },
		"Davinder Sodhi is the current owner of plot 30 on road 14.")

	resultRows := []map[string]any{{"pra": "30|14|Punjabi Bagh West", "name": "Davinder Sodhi"}}
	runner := &fakeRunner{fn: registryDispatch(nil, nil, resultRows)}
	s, history := newTestSession(t, gen, runner)

	var streamed strings.Builder
	r, err := s.Run(context.Background(), "who is the current owner of plot 30 road 14", func(tok string) {
		streamed.WriteString(tok)
	})
	require.NoError(t, err)

	assert.Contains(t, r.SQL, "SELECT p.pra, t2.name")
	require.Len(t, r.Rows, 1)
	assert.Equal(t, "Davinder Sodhi is the current owner of plot 30 on road 14.", r.Answer)
	assert.Equal(t, r.Answer, streamed.String())

	require.Equal(t, 1, history.AddExchangeCalls)
	assert.Equal(t, "Who is the current owner of plot 30 road 14?", history.Turns[0].Content,
		"the standalone question is what gets stored")

	// The result rows refresh the conversation focus.
	require.NotNil(t, s.focus.Property)
	assert.Equal(t, "30|14|Punjabi Bagh West", s.focus.Property.PRA)
}

func TestPropertyFlowNoRows(t *testing.T) {
	gen := llm.NewMockGenerator()
	propertyFlowGenerator(gen, func(string) string { return ownerSQL }, "unused")

	runner := &fakeRunner{fn: registryDispatch(nil, nil, nil)}
	s, history := newTestSession(t, gen, runner)

	r, err := s.Run(context.Background(), "who is the current owner of plot 30 road 14", nil)
	require.NoError(t, err)

	assert.Equal(t, prompts.NoRowsReply, r.Answer)
	assert.Empty(t, r.Rows)
	assert.Zero(t, history.AddExchangeCalls, "empty property results are not saved")
}

func TestPropertyFlowSecondTierRepair(t *testing.T) {
	gen := llm.NewMockGenerator()
	propertyFlowGenerator(gen, func(userPrompt string) string {
		// Only the second-tier repair request produces a legal query.
		if strings.Contains(userPrompt, "It FAILED validation with this error") {
			return ownerSQL
		}
		return "SELECT secret FROM vault LIMIT 5;"
	}, "Davinder Sodhi owns it.")

	resultRows := []map[string]any{{"name": "Davinder Sodhi"}}
	runner := &fakeRunner{fn: registryDispatch(nil, nil, resultRows)}
	s, _ := newTestSession(t, gen, runner)

	r, err := s.Run(context.Background(), "who is the current owner of plot 30 road 14", nil)
	require.NoError(t, err)

	assert.NotContains(t, r.SQL, "-- ERROR")
	assert.Contains(t, r.SQL, "properties p")
	require.Len(t, r.Rows, 1)
}

func TestPropertyFlowUnrepairableSQL(t *testing.T) {
	gen := llm.NewMockGenerator()
	propertyFlowGenerator(gen, func(string) string {
		return "SELECT secret FROM vault LIMIT 5;"
	}, "unused")

	runner := &fakeRunner{fn: registryDispatch(nil, nil, nil)}
	s, history := newTestSession(t, gen, runner)

	r, err := s.Run(context.Background(), "who is the current owner of plot 30 road 14", nil)
	require.NoError(t, err)

	assert.Contains(t, r.SQL, "-- ERROR: unsafe SQL blocked:")
	assert.Empty(t, r.Rows)
	assert.Equal(t, prompts.NoRowsReply, r.Answer)
	assert.Zero(t, history.AddExchangeCalls)
}

func TestPropertyFlowExecutionRepair(t *testing.T) {
	gen := llm.NewMockGenerator()
	propertyFlowGenerator(gen, func(userPrompt string) string {
		if strings.Contains(userPrompt, "Executing it against the database failed") {
			return "SELECT name FROM persons LIMIT 7;"
		}
		return "SELECT dob FROM persons LIMIT 5;"
	}, "Found one person.")

	runner := &fakeRunner{}
	runner.fn = func(sqlText string, _ bool) ([]map[string]any, error) {
		switch {
		case strings.Contains(sqlText, "DISTINCT TRIM(plot_no)"),
			strings.Contains(sqlText, "DISTINCT TRIM(road_no)"),
			strings.Contains(sqlText, "DISTINCT TRIM(name)"):
			return nil, nil
		case strings.Contains(sqlText, "dob"):
			return nil, fmt.Errorf("operator does not exist: json = text")
		default:
			return []map[string]any{{"name": "Davinder Sodhi"}}, nil
		}
	}
	s, _ := newTestSession(t, gen, runner)

	r, err := s.Run(context.Background(), "who is the current owner of plot 30 road 14", nil)
	require.NoError(t, err)

	assert.Contains(t, r.SQL, "SELECT name FROM persons")
	assert.NotContains(t, r.SQL, "-- ERROR")
	require.Len(t, r.Rows, 1)
}

func TestManagerReusesSessions(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.CreateEmbeddingsFunc = func(_ context.Context, inputs []string) ([][]float32, error) {
		vectors := make([][]float32, len(inputs))
		for i := range inputs {
			vectors[i] = []float32{1}
		}
		return vectors, nil
	}
	m := NewManager(Deps{Generator: gen, Logger: zap.NewNop()})

	a := m.Session("u1", "t1")
	b := m.Session("u1", "t1")
	c := m.Session("u1", "t2")
	d := m.Session("u2", "t1")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.NotSame(t, a, d)
	assert.NotSame(t, c, d)
}
