// Package index holds the in-process vector index over projected tracker records
// and the cache that owns its single instance.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/domain/document"
)

// DefaultTopK is the number of documents retrieved when no k is configured.
const DefaultTopK = 3

// Hit is a single retrieved document with its cosine similarity to the query.
type Hit struct {
	Document document.Document
	Score    float32
}

// Index is an immutable set of documents with unit-normalized embeddings.
// It is safe for concurrent queries.
type Index struct {
	id         string
	builtAt    time.Time
	dimensions int
	docs       []document.Document
	vectors    [][]float32
	query      domain.Embedder
}

// Build embeds every document with docEmbedder and returns a queryable index.
// Queries are embedded with queryEmbedder, which must use the same model.
// An empty document set yields a valid index without calling the embedder.
func Build(
	ctx context.Context, docEmbedder, queryEmbedder domain.Embedder, docs []document.Document,
) (*Index, error) {
	ix := &Index{
		id:      uuid.NewString(),
		builtAt: time.Now().UTC(),
		docs:    docs,
		query:   queryEmbedder,
	}
	if len(docs) == 0 {
		return ix, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text()
	}

	res, err := domain.EmbedAll(ctx, docEmbedder, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed documents: %w", domain.ErrRetrieval, err)
	}

	ix.dimensions = len(res.Embeddings[0])
	if ix.dimensions == 0 {
		return nil, fmt.Errorf("%w: empty embedding for document 0: %w",
			domain.ErrRetrieval, domain.ErrEmbeddingProviderError)
	}

	ix.vectors = make([][]float32, len(res.Embeddings))
	for i, v := range res.Embeddings {
		if len(v) != ix.dimensions {
			return nil, fmt.Errorf("%w: document %d has %d dimensions, expected %d: %w",
				domain.ErrRetrieval, i, len(v), ix.dimensions, domain.ErrVectorDimMismatch)
		}
		ix.vectors[i] = normalize(v)
	}

	return ix, nil
}

// Query embeds text and returns up to k documents by descending cosine similarity.
// Ties keep insertion order. An empty index or k <= 0 returns no hits and makes no
// embedding call.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]Hit, error) {
	if len(ix.docs) == 0 || k <= 0 {
		return nil, nil
	}

	res, err := ix.query.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrieval, err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(res.TotalTokens)

	if len(res.Embedding) != ix.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d: %w",
			domain.ErrRetrieval, len(res.Embedding), ix.dimensions, domain.ErrVectorDimMismatch)
	}

	return ix.nearest(normalize(res.Embedding), k), nil
}

func (ix *Index) nearest(q []float32, k int) []Hit {
	hits := make([]Hit, len(ix.docs))
	for i, v := range ix.vectors {
		hits[i] = Hit{Document: ix.docs[i], Score: dot(q, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// ID returns the build identifier.
func (ix *Index) ID() string { return ix.id }

// BuiltAt returns when the index was built (UTC).
func (ix *Index) BuiltAt() time.Time { return ix.builtAt }

// Dimensions returns the embedding dimensionality, 0 for an empty index.
func (ix *Index) Dimensions() int { return ix.dimensions }

// Len returns the number of indexed documents.
func (ix *Index) Len() int { return len(ix.docs) }

// Documents returns a copy of the indexed documents in insertion order.
func (ix *Index) Documents() []document.Document {
	out := make([]document.Document, len(ix.docs))
	copy(out, ix.docs)
	return out
}

// Vector returns a copy of the normalized embedding of document i.
func (ix *Index) Vector(i int) []float32 {
	out := make([]float32, len(ix.vectors[i]))
	copy(out, ix.vectors[i])
	return out
}

// normalize returns v scaled to unit length. A zero vector stays zero and scores 0.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float32 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return float32(s)
}
