package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/docufy-dev/docufy/pkg/domain/model"
)

// Service converts text into fixed-dimension embedding vectors for
// similarity search. Unlike fact extraction, embedding failures are
// loud: callers treat a vector as a precondition for indexing and
// decide themselves whether persistence proceeds without one.
type Service struct {
	llmClient gollem.LLMClient
}

// New creates a new embedding service with the provided LLM client
func New(llmClient gollem.LLMClient) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Service{llmClient: llmClient}, nil
}

// Embed generates a model.EmbeddingDimension vector for the given text
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedAll(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedAll generates one vector per input text in a single provider call
func (s *Service) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := s.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("count", len(texts)))
	}
	if len(embeddings) != len(texts) {
		return nil, goerr.New("embedding provider returned wrong vector count",
			goerr.V("want", len(texts)), goerr.V("got", len(embeddings)))
	}

	result := make([][]float32, len(embeddings))
	for i, vec := range embeddings {
		if len(vec) == 0 {
			return nil, goerr.New("embedding provider returned empty vector", goerr.V("index", i))
		}
		result[i] = make([]float32, len(vec))
		for j, v := range vec {
			result[i][j] = float32(v)
		}
	}

	return result, nil
}
