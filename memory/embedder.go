package memory

import (
	"context"
	"slices"

	"github.com/habiliai/aurora/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type (
	// Embedder turns texts into vectors, one per text and in the same order.
	Embedder interface {
		Embed(ctx context.Context, texts ...string) ([][]float32, error)
	}

	OpenAIEmbedder struct {
		client     *openai.Client
		model      string
		dimensions int
	}
)

var (
	_ Embedder = (*OpenAIEmbedder)(nil)
)

const DefaultEmbeddingModel = "text-embedding-3-small"

// NewOpenAIEmbedder creates an embedder on the OpenAI embeddings API.
// dimensions <= 0 keeps the model's native size.
func NewOpenAIEmbedder(model string, dimensions int, opts ...option.RequestOption) *OpenAIEmbedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	client := openai.NewClient(opts...)
	return &OpenAIEmbedder{
		client:     &client,
		model:      model,
		dimensions: dimensions,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	params := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	res, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed %d texts with %s", len(texts), e.model)
	}
	if len(res.Data) != len(texts) {
		return nil, errors.Errorf("expected %d embeddings, got %d", len(texts), len(res.Data))
	}

	data := slices.Clone(res.Data)
	slices.SortFunc(data, func(a, b openai.Embedding) int { return int(a.Index - b.Index) })

	embeddings := make([][]float32, len(data))
	for i, emb := range data {
		embedding := make([]float32, len(emb.Embedding))
		for j, val := range emb.Embedding {
			embedding[j] = float32(val)
		}
		embeddings[i] = embedding
	}

	return embeddings, nil
}
