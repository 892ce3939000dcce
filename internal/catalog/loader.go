package catalog

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned for a load whose result arrived after a newer
// query was issued; the caller must discard it.
var ErrSuperseded = errors.New("query superseded by a newer one")

// Executor runs an authenticated operation; satisfied by session.Manager.
type Executor interface {
	Execute(ctx context.Context, op func(ctx context.Context, accessToken string) error) error
}

// Backend fetches category-scoped device snapshots.
type Backend interface {
	FetchCategory(ctx context.Context, accessToken, category string) ([]Device, error)
}

// Loader fetches snapshots through the session manager and computes catalog
// results with last-query-wins semantics: a stale response never reaches
// the caller as the current view.
type Loader struct {
	exec    Executor
	backend Backend

	mu      sync.Mutex
	gen     uint64
	current *Result
}

func NewLoader(exec Executor, backend Backend) *Loader {
	return &Loader{exec: exec, backend: backend}
}

// Load fetches the snapshot for q's category and computes the result. If a
// newer Load was issued while this one was in flight, the result is
// discarded and ErrSuperseded is returned.
func (l *Loader) Load(ctx context.Context, q Query) (*Result, error) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	var devices []Device
	err := l.exec.Execute(ctx, func(ctx context.Context, accessToken string) error {
		snapshot, ferr := l.backend.FetchCategory(ctx, accessToken, q.Category)
		if ferr != nil {
			return ferr
		}
		devices = snapshot
		return nil
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	result := Run(devices, q)
	l.current = &result
	return &result, nil
}

// Current returns the most recently committed result, if any.
func (l *Loader) Current() (*Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.current != nil
}
