package genai

import (
	"context"

	"studio/internal/domain"
	"studio/internal/imaging"
)

// Pipeline prepares and executes one generation request: preprocess the
// job's source-image snapshot, build the payload, call the model. It is the
// unit the scheduler dispatches.
type Pipeline struct {
	pre    *imaging.Preprocessor
	client *Client
}

// NewPipeline wires a preprocessor and a client into a dispatchable pipeline.
func NewPipeline(pre *imaging.Preprocessor, client *Client) *Pipeline {
	return &Pipeline{pre: pre, client: client}
}

// Run executes the pipeline for one job snapshot. Preprocessing failures
// degrade inside the preprocessor and never fail the job; only the gateway
// call can return an error.
func (p *Pipeline) Run(ctx context.Context, job domain.Job) (*Output, error) {
	images := p.pre.ProcessAll(ctx, job.SourceImages)
	req := BuildRequest(job.Prompt, job.Settings, images, p.client.Models())
	return p.client.Generate(ctx, req)
}
