package schema

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/logging"
	"github.com/huntdream/jsoncrack/internal/models"
)

// Synthesizer turns a sample tree into JSON Schema text. Implementations
// may be slow or remote and must honour ctx.
type Synthesizer interface {
	SynthesizeTypeSchema(ctx context.Context, sample *models.Value) (string, error)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, sample *models.Value) (string, error)

// SynthesizeTypeSchema calls f.
func (f SynthesizerFunc) SynthesizeTypeSchema(ctx context.Context, sample *models.Value) (string, error) {
	return f(ctx, sample)
}

// InferSynthesizer synthesizes schemas in process with Infer.
type InferSynthesizer struct{}

// SynthesizeTypeSchema infers a schema from sample and renders it as JSON.
func (InferSynthesizer) SynthesizeTypeSchema(ctx context.Context, sample *models.Value) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := json.Marshal(Infer(sample))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GenerateFromTree synthesizes a schema for tree and fabricates a new
// sample from it. Synthesis failures are returned as generate errors and
// never retried.
func GenerateFromTree(ctx context.Context, synth Synthesizer, tree *models.Value, opts SampleOptions) (*models.Value, error) {
	logger := logging.FromContext(ctx)
	if tree == nil {
		return nil, errors.NewGenerateError("no document loaded", errors.ErrNoInput)
	}
	if synth == nil {
		synth = InferSynthesizer{}
	}

	progress := logging.NewProgress(logger)
	text, err := synth.SynthesizeTypeSchema(ctx, tree)
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewGenerateError("type synthesis cancelled", fmt.Errorf("%w: %v", errors.ErrCancelled, err))
		}
		return nil, errors.NewGenerateError("type synthesis failed", err)
	}
	progress.Done("synthesized schema", "bytes", len(text))

	s, err := ParseString(text)
	if err != nil {
		return nil, errors.NewGenerateError("type synthesis returned an invalid schema", err)
	}

	sample, err := GenerateSample(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	progress.Done("generated sample", "seed", opts.Seed)
	return sample, nil
}
