package embedding_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/service/embedding"
)

type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
	gotDimension        int
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, goerr.New("not implemented")
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	c.gotDimension = dimension
	if c.generateEmbeddingFn != nil {
		return c.generateEmbeddingFn(ctx, dimension, input)
	}
	vectors := make([][]float64, len(input))
	for i := range input {
		vec := make([]float64, dimension)
		vec[i%dimension] = 1
		vectors[i] = vec
	}
	return vectors, nil
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := embedding.New(nil)
	gt.Error(t, err)
}

func TestEmbed(t *testing.T) {
	llm := &mockLLMClient{}
	svc, err := embedding.New(llm)
	gt.NoError(t, err).Required()

	vec, err := svc.Embed(context.Background(), "some page text")
	gt.NoError(t, err).Required()
	gt.Value(t, len(vec)).Equal(model.EmbeddingDimension)
	gt.Value(t, llm.gotDimension).Equal(model.EmbeddingDimension)
}

func TestEmbedAll(t *testing.T) {
	llm := &mockLLMClient{}
	svc, err := embedding.New(llm)
	gt.NoError(t, err).Required()

	vectors, err := svc.EmbedAll(context.Background(), []string{"first", "second", "third"})
	gt.NoError(t, err).Required()
	gt.Array(t, vectors).Length(3).Required()
	for _, vec := range vectors {
		gt.Value(t, len(vec)).Equal(model.EmbeddingDimension)
	}
}

func TestEmbedAll_EmptyInput(t *testing.T) {
	llm := &mockLLMClient{}
	svc, err := embedding.New(llm)
	gt.NoError(t, err).Required()

	vectors, err := svc.EmbedAll(context.Background(), nil)
	gt.NoError(t, err)
	gt.Value(t, len(vectors)).Equal(0)
	gt.Value(t, llm.gotDimension).Equal(0)
}

func TestEmbedAll_ProviderFailure(t *testing.T) {
	llm := &mockLLMClient{
		generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			return nil, goerr.New("provider unavailable")
		},
	}
	svc, err := embedding.New(llm)
	gt.NoError(t, err).Required()

	_, err = svc.EmbedAll(context.Background(), []string{"text"})
	gt.Error(t, err)
}

func TestEmbedAll_WrongVectorCount(t *testing.T) {
	llm := &mockLLMClient{
		generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			return [][]float64{make([]float64, dimension)}, nil
		},
	}
	svc, err := embedding.New(llm)
	gt.NoError(t, err).Required()

	_, err = svc.EmbedAll(context.Background(), []string{"first", "second"})
	gt.Error(t, err)
}

func TestEmbedAll_EmptyVector(t *testing.T) {
	llm := &mockLLMClient{
		generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			return [][]float64{{}}, nil
		},
	}
	svc, err := embedding.New(llm)
	gt.NoError(t, err).Required()

	_, err = svc.EmbedAll(context.Background(), []string{"text"})
	gt.Error(t, err)
}
