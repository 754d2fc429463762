package worker

import (
	"context"
	"os"

	"github.com/ppiankov/claimgate/internal/model"
)

// Gate is the firewall surface the batch processor drives
type Gate interface {
	Evaluate(ctx context.Context, request model.FirewallRequest) (*model.FirewallResult, error)
}

// FileResult pairs one file with its gate outcome
type FileResult struct {
	Path   string
	Result *model.FirewallResult
	Err    error
}

// fileJob evaluates one file through the gate
type fileJob struct {
	gate    Gate
	path    string
	agentID string
}

func (j fileJob) Execute(ctx context.Context) *FileResult {
	content, err := os.ReadFile(j.path)
	if err != nil {
		return &FileResult{Path: j.path, Err: err}
	}

	result, err := j.gate.Evaluate(ctx, model.FirewallRequest{
		ID:      j.path,
		AgentID: j.agentID,
		Action:  model.ActionModify,
		Target:  j.path,
		Content: string(content),
	})
	return &FileResult{Path: j.path, Result: result, Err: err}
}

// BatchProcessor runs firewall checks over many files using the worker pool
type BatchProcessor struct {
	gate    Gate
	workers int
	agentID string
}

// NewBatchProcessor creates a batch processor with the given parallelism
func NewBatchProcessor(gate Gate, workers int, agentID string) *BatchProcessor {
	if workers <= 0 {
		workers = 4
	}
	return &BatchProcessor{gate: gate, workers: workers, agentID: agentID}
}

// Process checks every file through the gate and returns one result per
// file, in no particular order.
func (b *BatchProcessor) Process(ctx context.Context, paths []string) []*FileResult {
	pool := NewPool(b.workers)
	pool.Start(ctx)

	for _, path := range paths {
		pool.Submit(ctx, fileJob{gate: b.gate, path: path, agentID: b.agentID})
	}

	return pool.Wait()
}
