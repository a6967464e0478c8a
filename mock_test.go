package propmatch

import (
	"context"
	"strings"
	"sync"
)

// --- Mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)

	mu    sync.Mutex
	texts []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	return m.fn(ctx, text)
}

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batches int
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()

	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		r, err := m.fn(ctx, t)
		if err != nil {
			return BatchEmbeddingResult{}, err
		}
		out.Embeddings[i] = r.Embedding
		out.TotalTokens += r.TotalTokens
	}
	return out, nil
}

// keywordEmbedder maps texts onto three axes: chat, weather, everything else.
func keywordEmbedder() *mockEmbedder {
	return &mockEmbedder{fn: keywordVectors}
}

func keywordVectors(_ context.Context, text string) (EmbeddingResult, error) {
	switch {
	case strings.Contains(text, "chat"):
		return EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 2}, nil
	case strings.Contains(text, "weather"):
		return EmbeddingResult{Embedding: []float32{0, 1, 0}, TotalTokens: 2}, nil
	default:
		return EmbeddingResult{Embedding: []float32{0, 0, 1}, TotalTokens: 2}, nil
	}
}

const testCorpus = `[
  {"title": "Chat App", "embedding": [1, 0, 0]},
  {"title": "Weather Station", "embedding": [0, 1, 0]},
  {"title": "Team Messenger", "embedding": [0.8, 0.6, 0]}
]`
