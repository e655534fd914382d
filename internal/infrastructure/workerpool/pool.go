package workerpool

import (
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// Pool bounds pipeline concurrency on a fixed set of goroutines.
type Pool struct {
	inner *ants.Pool
}

func New(size int) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	inner, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Pool{inner: inner}, nil
}

func (p *Pool) Submit(task func()) error {
	if err := p.inner.Submit(task); err != nil {
		return fmt.Errorf("submit pipeline task: %w", err)
	}
	return nil
}

// Release stops the pool. Pending tasks already started keep running.
func (p *Pool) Release() {
	p.inner.Release()
}
