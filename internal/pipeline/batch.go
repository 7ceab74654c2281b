package pipeline

import (
	"context"
	"errors"

	"github.com/fmueller/meetnotes/internal/media"
	"go.uber.org/zap"
)

// Source is one input, loaded only when its turn comes.
type Source struct {
	Name string
	Load func() (media.Blob, error)
}

type Outcome struct {
	Source string
	Result Result
	Err    error
}

// ErrNoInputs is returned by RunAll when it is given nothing to do.
var ErrNoInputs = errors.New("no audio inputs given")

// RunAll processes sources one at a time and hands every outcome to handle.
// Per-input failures are reported and skipped; the first configuration error
// stops the batch before the next source is loaded and is returned.
func (p *Pipeline) RunAll(ctx context.Context, sources []Source, handle func(Outcome)) error {
	if len(sources) == 0 {
		return ErrNoInputs
	}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		blob, err := src.Load()
		if err != nil {
			handle(Outcome{Source: src.Name, Err: err})
			continue
		}
		res, err := p.Run(ctx, blob)
		handle(Outcome{Source: src.Name, Result: res, Err: err})

		if err != nil && KindOf(err).Fatal() {
			p.log().Debug("stopping batch", zap.String("audio", src.Name), zap.Error(err))
			return err
		}
	}
	return nil
}
