package chat

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/models"
)

func TestClassifyMutationOverride(t *testing.T) {
	gen := llm.NewMockGenerator()
	c := NewClassifier(gen, zap.NewNop())

	for _, q := range []string{
		"please delete the owner of plot 30",
		"UPDATE the file number",
		"can you remove this transaction",
	} {
		cls := c.Classify(context.Background(), q, nil)
		if cls.Label != models.LabelIrrelevant {
			t.Errorf("Classify(%q) = %q, want irrelevant_question", q, cls.Label)
		}
	}
	if gen.GenerateJSONCalls != 0 {
		t.Errorf("mutation override must not call the model, got %d calls", gen.GenerateJSONCalls)
	}
}

func TestClassifyKeywordHeuristic(t *testing.T) {
	gen := llm.NewMockGenerator()
	c := NewClassifier(gen, zap.NewNop())

	for _, q := range []string{
		"who is the current owner of 30/14",
		"list all transactions in 2018",
		"what is the date of birth of Neelam",
		"share certificate for 28|6|Punjabi Bagh East",
	} {
		cls := c.Classify(context.Background(), q, nil)
		if cls.Label != models.LabelPropertyTalk {
			t.Errorf("Classify(%q) = %q, want property_talk", q, cls.Label)
		}
	}
	if gen.GenerateJSONCalls != 0 {
		t.Errorf("keyword heuristic must not call the model, got %d calls", gen.GenerateJSONCalls)
	}
}

func TestClassifyModelFallback(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.GenerateJSONFunc = func(_ context.Context, _, _ string, _ float64) (string, error) {
		return `{"label": "small_talk", "reason": "greeting"}`, nil
	}
	c := NewClassifier(gen, zap.NewNop())

	cls := c.Classify(context.Background(), "hi, how are you today", nil)
	if cls.Label != models.LabelSmallTalk {
		t.Errorf("label = %q, want small_talk", cls.Label)
	}
	if gen.GenerateJSONCalls != 1 {
		t.Errorf("expected one model call, got %d", gen.GenerateJSONCalls)
	}
}

func TestClassifyModelFailureDefaultsToPropertyTalk(t *testing.T) {
	gen := llm.NewMockGenerator()
	gen.GenerateJSONFunc = func(_ context.Context, _, _ string, _ float64) (string, error) {
		return "not json at all", nil
	}
	c := NewClassifier(gen, zap.NewNop())

	cls := c.Classify(context.Background(), "tell me something", nil)
	if cls.Label != models.LabelPropertyTalk {
		t.Errorf("label = %q, want property_talk default", cls.Label)
	}
}
