package memorytest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/habiliai/aurora/memory"
	"github.com/stretchr/testify/mock"
)

// FakeEmbedder returns a fixed vector for known texts and a bag-of-words
// hash vector for everything else, so identical texts always collide.
type FakeEmbedder struct {
	Dim int

	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
}

func NewFakeEmbedder(dim int) *FakeEmbedder {
	return &FakeEmbedder{Dim: dim, vectors: map[string][]float32{}}
}

// Set pins the vector returned for text.
func (e *FakeEmbedder) Set(text string, vector ...float32) *FakeEmbedder {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vectors[text] = vector
	return e
}

func (e *FakeEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *FakeEmbedder) Embed(_ context.Context, texts ...string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if v, ok := e.vectors[text]; ok {
			out = append(out, append([]float32(nil), v...))
			continue
		}
		out = append(out, e.hash(text))
	}
	return out, nil
}

func (e *FakeEmbedder) hash(text string) []float32 {
	v := make([]float32, e.Dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		v[h.Sum32()%uint32(e.Dim)] += 1
	}
	return v
}

type EmbedderMock struct {
	mock.Mock
}

func (m *EmbedderMock) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	res, _ := args.Get(0).([][]float32)
	return res, args.Error(1)
}

var (
	_ memory.Embedder = (*FakeEmbedder)(nil)
	_ memory.Embedder = (*EmbedderMock)(nil)
)
