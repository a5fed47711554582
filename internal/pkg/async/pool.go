// Package async runs independent read queries side by side.
package async

import (
	"context"
	"sync"
)

type Task[T any] struct {
	Name    string
	Execute func(ctx context.Context) (T, error)
}

type Result[T any] struct {
	Name string
	Data T
	Err  error
}

// Pool runs tasks on a fixed number of workers.
type Pool[T any] struct {
	workerCount int
}

func NewPool[T any](workerCount int) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool[T]{workerCount: workerCount}
}

// Execute runs every task and returns results keyed by task name. When ctx is
// cancelled, tasks not yet started are reported with ctx.Err().
func (p *Pool[T]) Execute(ctx context.Context, tasks []Task[T]) map[string]Result[T] {
	queue := make(chan Task[T])
	results := make(chan Result[T], len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				data, err := task.Execute(ctx)
				results <- Result[T]{Name: task.Name, Data: data, Err: err}
			}
		}()
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			results <- Result[T]{Name: task.Name, Err: ctx.Err()}
			continue
		}
		select {
		case queue <- task:
		case <-ctx.Done():
			results <- Result[T]{Name: task.Name, Err: ctx.Err()}
		}
	}
	close(queue)
	wg.Wait()
	close(results)

	collected := make(map[string]Result[T], len(tasks))
	for result := range results {
		collected[result.Name] = result
	}
	return collected
}
