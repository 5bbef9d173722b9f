// Package encoding converts between dataset source cells (one row's string
// values for a column group) and tensors, and back again into
// human-readable form.
package encoding

import (
	"fmt"
	"strconv"

	"github.com/example/happyml/internal/engine/tensor"
)

// Encoder turns one row's cells for a column group into a tensor of its
// declared shape.
type Encoder interface {
	Encode(cells []string) (tensor.Tensor, error)
	OutputShape() tensor.Shape
}

// ScalarEncoder parses cells as floats and packs them into a dense Full32
// tensor in declaration order.
type ScalarEncoder struct {
	Rows, Columns, Channels int
}

func (e ScalarEncoder) OutputShape() tensor.Shape {
	return tensor.Shape{Rows: e.Rows, Columns: e.Columns, Channels: e.Channels}
}

func (e ScalarEncoder) Encode(cells []string) (tensor.Tensor, error) {
	want := e.Rows * e.Columns * e.Channels
	if len(cells) != want {
		return nil, fmt.Errorf("encoding: ScalarEncoder expects %d cells, got %d", want, len(cells))
	}
	values := make([]float32, want)
	for i, cell := range cells {
		v, err := strconv.ParseFloat(cell, 32)
		if err != nil {
			return nil, fmt.Errorf("encoding: ScalarEncoder cell %d %q: %w", i, cell, err)
		}
		values[i] = float32(v)
	}
	return tensor.NewFull32(e.Rows, e.Columns, e.Channels, values), nil
}

// PixelEncoder parses cells as floats in [0,255] and packs them into a
// Pixel8 tensor scaled to [0,1].
type PixelEncoder struct {
	Rows, Columns, Channels int
}

func (e PixelEncoder) OutputShape() tensor.Shape {
	return tensor.Shape{Rows: e.Rows, Columns: e.Columns, Channels: e.Channels}
}

func (e PixelEncoder) Encode(cells []string) (tensor.Tensor, error) {
	want := e.Rows * e.Columns * e.Channels
	if len(cells) != want {
		return nil, fmt.Errorf("encoding: PixelEncoder expects %d cells, got %d", want, len(cells))
	}
	values := make([]float32, want)
	for i, cell := range cells {
		v, err := strconv.ParseFloat(cell, 32)
		if err != nil {
			return nil, fmt.Errorf("encoding: PixelEncoder cell %d %q: %w", i, cell, err)
		}
		values[i] = float32(v) / 255.0
	}
	return tensor.NewPixel8(e.Rows, e.Columns, e.Channels, values), nil
}

// LabelEncoder looks up a single cell string in an ordered distinct-label
// list and emits a one-hot Quarter8 vector of length len(Labels).
type LabelEncoder struct {
	Labels []string
	Bias   int
}

func (e LabelEncoder) OutputShape() tensor.Shape {
	return tensor.Shape{Rows: 1, Columns: len(e.Labels), Channels: 1}
}

func (e LabelEncoder) Encode(cells []string) (tensor.Tensor, error) {
	if len(cells) != 1 {
		return nil, fmt.Errorf("encoding: LabelEncoder expects exactly 1 cell, got %d", len(cells))
	}
	index := -1
	for i, label := range e.Labels {
		if label == cells[0] {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("encoding: LabelEncoder: label %q not in dictionary", cells[0])
	}
	values := make([]float32, len(e.Labels))
	values[index] = 1
	bias := e.Bias
	if bias == 0 {
		bias = 4
	}
	return tensor.NewQuarter8(1, len(e.Labels), 1, values, bias), nil
}

// Tokenizer is the only contract the byte-pair text tokenizer must
// satisfy; the tokenizer implementation itself is an external
// collaborator, out of the engine's scope.
type Tokenizer interface {
	Encode(text string) ([]int, error)
}

// Embedder looks up a learned embedding vector for a token ID; also an
// external collaborator (the embedding table is trained outside the core
// engine and supplied at dataset-build time).
type Embedder interface {
	Embed(tokenID int) []float32
	EmbeddingWidth() int
}

// TokenEncoder tokenizes the cell via Tokenizer, then embeds each token via
// Embedder, packing tokens row-wise into a Full32 tensor of shape
// (maxTokens, EmbeddingWidth, 1). Cells producing fewer tokens than
// maxTokens are zero-padded; more are truncated.
type TokenEncoder struct {
	Tokenizer Tokenizer
	Embedder  Embedder
	MaxTokens int
}

func (e TokenEncoder) OutputShape() tensor.Shape {
	return tensor.Shape{Rows: e.MaxTokens, Columns: e.Embedder.EmbeddingWidth(), Channels: 1}
}

func (e TokenEncoder) Encode(cells []string) (tensor.Tensor, error) {
	if len(cells) != 1 {
		return nil, fmt.Errorf("encoding: TokenEncoder expects exactly 1 cell, got %d", len(cells))
	}
	tokens, err := e.Tokenizer.Encode(cells[0])
	if err != nil {
		return nil, fmt.Errorf("encoding: TokenEncoder tokenize: %w", err)
	}

	width := e.Embedder.EmbeddingWidth()
	values := make([]float32, e.MaxTokens*width)
	for i := 0; i < e.MaxTokens && i < len(tokens); i++ {
		copy(values[i*width:(i+1)*width], e.Embedder.Embed(tokens[i]))
	}

	return tensor.NewFull32(e.MaxTokens, width, 1, values), nil
}
