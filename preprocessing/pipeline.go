package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/omicsrank/biomark/core/model"
	"github.com/omicsrank/biomark/pkg/errors"
)

// Pipeline chains transformers: Fit learns each stage on the output of the
// previous one, Transform applies them in order. The default biomarker
// preprocessing is median imputation followed by standard scaling.
type Pipeline struct {
	state  *model.StateManager
	stages []model.Transformer
}

// NewPipeline creates a pipeline over the given stages.
func NewPipeline(stages ...model.Transformer) *Pipeline {
	return &Pipeline{
		state:  model.NewStateManager(),
		stages: stages,
	}
}

// NewDefaultPipeline creates the standard biomarker preprocessing pipeline:
// median imputation, then standard scaling.
func NewDefaultPipeline() *Pipeline {
	return NewPipeline(NewMedianImputer(), NewStandardScalerDefault())
}

// Fit learns every stage in order, feeding each stage the transformed output
// of its predecessor.
func (p *Pipeline) Fit(X mat.Matrix) error {
	if len(p.stages) == 0 {
		return errors.NewValidationError("stages", "pipeline has no stages", nil)
	}

	current := X
	for i, stage := range p.stages {
		if err := stage.Fit(current); err != nil {
			return errors.Wrapf(err, "pipeline stage %d fit failed", i)
		}
		if i < len(p.stages)-1 {
			transformed, err := stage.Transform(current)
			if err != nil {
				return errors.Wrapf(err, "pipeline stage %d transform failed", i)
			}
			current = transformed
		}
	}

	r, c := X.Dims()
	p.state.SetDimensions(r, c)
	p.state.SetFitted()
	return nil
}

// Transform applies every fitted stage in order.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}

	current := X
	for i, stage := range p.stages {
		transformed, err := stage.Transform(current)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline stage %d transform failed", i)
		}
		current = transformed
	}
	return current, nil
}

// FitTransform fits the pipeline and transforms X in one call.
func (p *Pipeline) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// Clone returns an unfitted pipeline whose stages are clones of this one's.
func (p *Pipeline) Clone() model.Transformer {
	cloned := make([]model.Transformer, len(p.stages))
	for i, stage := range p.stages {
		cloned[i] = stage.Clone()
	}
	return NewPipeline(cloned...)
}

// IsFitted reports whether Fit has been called.
func (p *Pipeline) IsFitted() bool {
	return p.state.IsFitted()
}
