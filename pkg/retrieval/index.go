// Package retrieval holds the in-memory embedding index over table
// schema docs and worked SQL examples. The corpus is small (a few dozen
// documents), so a linear cosine scan beats carrying a vector store.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/prompts"
)

// Kind partitions the index into schema docs and SQL examples.
type Kind string

const (
	KindSchema     Kind = "schema"
	KindSQLExample Kind = "sql_example"
)

// Document is one indexed item. For SQL examples only the question is
// embedded; the SQL rides along as payload.
type Document struct {
	ID      string
	Kind    Kind
	Text    string
	Table   string
	Example *prompts.SQLExample
}

// Match is a retrieved document with its cosine similarity to the query.
type Match struct {
	Document
	Similarity float64
}

// Index embeds the bundled schema docs and SQL examples once at startup
// and answers similarity queries. Read-only after Bootstrap.
type Index struct {
	embedder llm.Embedder
	logger   *zap.Logger

	docs    []Document
	vectors [][]float32
}

func NewIndex(embedder llm.Embedder, logger *zap.Logger) *Index {
	return &Index{
		embedder: embedder,
		logger:   logger.Named("retrieval"),
	}
}

// Bootstrap builds the index from the bundled corpus. Must be called
// before any query.
func (ix *Index) Bootstrap(ctx context.Context) error {
	docs := make([]Document, 0, len(prompts.TableSchemas)+len(prompts.SQLExamples))

	for i := range prompts.TableSchemas {
		s := prompts.TableSchemas[i]
		docs = append(docs, Document{
			ID:    "schema-" + s.Table,
			Kind:  KindSchema,
			Text:  fmt.Sprintf("Table %s description:\n%s", s.Table, s.Description),
			Table: s.Table,
		})
	}
	for i := range prompts.SQLExamples {
		ex := &prompts.SQLExamples[i]
		docs = append(docs, Document{
			ID:      "sql-example-" + ex.ID,
			Kind:    KindSQLExample,
			Text:    ex.Question,
			Example: ex,
		})
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	vectors, err := ix.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding corpus: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedding corpus: got %d vectors for %d documents", len(vectors), len(docs))
	}

	ix.docs = docs
	ix.vectors = vectors
	ix.logger.Info("index built",
		zap.Int("schema_docs", len(prompts.TableSchemas)),
		zap.Int("sql_examples", len(prompts.SQLExamples)))
	return nil
}

// QueryExamples returns the topK most similar SQL examples.
func (ix *Index) QueryExamples(ctx context.Context, question string, topK int) ([]Match, error) {
	return ix.query(ctx, question, KindSQLExample, topK)
}

// QuerySchema returns the topK most similar schema docs.
func (ix *Index) QuerySchema(ctx context.Context, question string, topK int) ([]Match, error) {
	return ix.query(ctx, question, KindSchema, topK)
}

func (ix *Index) query(ctx context.Context, question string, kind Kind, topK int) ([]Match, error) {
	if len(ix.docs) == 0 {
		return nil, fmt.Errorf("index is empty, call Bootstrap first")
	}

	qv, err := ix.embedder.CreateEmbedding(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	matches := make([]Match, 0, topK)
	for i, d := range ix.docs {
		if d.Kind != kind {
			continue
		}
		matches = append(matches, Match{
			Document:   d,
			Similarity: cosineSimilarity(qv, ix.vectors[i]),
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Similarity > matches[b].Similarity
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// SelectRelevant applies the relevance gate: when the best match clears
// the threshold the top keep matches are used, otherwise none are. A
// weak best match means the whole neighborhood is noise.
func SelectRelevant(matches []Match, threshold float64, keep int) []Match {
	if len(matches) == 0 || matches[0].Similarity < threshold {
		return nil
	}
	if keep > 0 && len(matches) > keep {
		return matches[:keep]
	}
	return matches
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
