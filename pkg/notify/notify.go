// Package notify implements the batch-completion notifier: an event bus
// with Subscribe/Emit and one goroutine per handler, narrowed to the
// single CompletionEvent this pipeline emits.
package notify

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

// Handler reacts to a batch-completion event.
type Handler func(ctx context.Context, event pipeline.CompletionEvent) error

// Bus implements pipeline.Notifier, fanning a CompletionEvent out to
// every registered Handler concurrently. A handler's error is logged,
// never propagated — the coordinator's batch has already finished by
// the time Emit runs.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *log.Logger
}

// NewBus constructs an empty Bus.
func NewBus(logger *log.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a Handler to run on every emitted event.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Emit implements pipeline.Notifier.
func (b *Bus) Emit(ctx context.Context, event pipeline.CompletionEvent) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	b.logger.Debugf("emitting batch completion event for %s to %d handlers", event.BatchID, len(handlers))

	var wg sync.WaitGroup
	for _, h := range handlers {
		wg.Add(1)
		go func(handler Handler) {
			defer wg.Done()
			if err := handler(ctx, event); err != nil {
				b.logger.Errorf("notification handler failed for batch %s: %v", event.BatchID, err)
			}
		}(h)
	}
	wg.Wait()
}

var _ pipeline.Notifier = (*Bus)(nil)
