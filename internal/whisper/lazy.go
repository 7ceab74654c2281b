package whisper

import (
	"context"
	"sync"
)

// Lazy defers building an engine until the first transcription, then reuses it.
// The build error, if any, is returned on every call.
type Lazy struct {
	kind  string
	build func() (Engine, error)

	once   sync.Once
	engine Engine
	err    error
}

func NewLazy(kind string, build func() (Engine, error)) *Lazy {
	return &Lazy{kind: kind, build: build}
}

func (l *Lazy) Name() string { return l.kind }

// Get builds the engine on first use.
func (l *Lazy) Get() (Engine, error) {
	l.once.Do(func() {
		l.engine, l.err = l.build()
	})
	return l.engine, l.err
}

func (l *Lazy) Transcribe(ctx context.Context, req Request) (string, error) {
	engine, err := l.Get()
	if err != nil {
		return "", err
	}
	return engine.Transcribe(ctx, req)
}
