package parser

import (
	"context"
	"runtime"
	"sync"

	"clipsync/internal/analysis"
)

// Outcome is the result of one pooled request.
type Outcome struct {
	Request  Request
	Analysis *analysis.AudioAnalysis
	Err      error
}

// Pool runs Parse calls on a fixed number of workers.
type Pool struct {
	parser  *Parser
	workers int
}

// NewPool returns a pool of workers goroutines. workers <= 0 uses one worker
// per CPU.
func NewPool(p *Parser, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{parser: p, workers: workers}
}

// Workers reports the pool size.
func (p *Pool) Workers() int { return p.workers }

// Run analyzes every request and returns outcomes in input order. Requests
// not yet started when ctx is cancelled report the context error.
func (p *Pool) Run(ctx context.Context, reqs []Request) []Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	out := make([]Outcome, len(reqs))
	if len(reqs) == 0 {
		return out
	}

	workers := min(p.workers, len(reqs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := p.parser.Parse(ctx, reqs[i])
				out[i] = Outcome{Request: reqs[i], Analysis: res, Err: err}
			}
		}()
	}

	for i := range reqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}
