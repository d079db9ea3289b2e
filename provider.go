package kanjidrill

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Provider resolves the stroke-order illustration of a character.
// Implementations report every failure as ErrIllustrationNotFound (or
// ErrStrokeCountUnavailable) and never retry.
type Provider interface {
	Illustration(ctx context.Context, c Character) (*Illustration, error)
	StrokeCount(ctx context.Context, c Character) (int, error)
}

// strokeCount derives the stroke count of c from its illustration.
func strokeCount(ctx context.Context, p Provider, c Character) (int, error) {
	ill, err := p.Illustration(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrStrokeCountUnavailable, c, err)
	}
	n := ill.StrokeCount()
	if n == 0 {
		return 0, fmt.Errorf("%w: %s has no stroke paths", ErrStrokeCountUnavailable, c)
	}
	return n, nil
}

// Chain tries each provider in turn and returns the first illustration found.
type Chain []Provider

var _ Provider = Chain(nil)

// Illustration implements Provider.
func (ch Chain) Illustration(ctx context.Context, c Character) (*Illustration, error) {
	for _, p := range ch {
		ill, err := p.Illustration(ctx, c)
		if err == nil {
			return ill, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrIllustrationNotFound, c, ctx.Err())
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIllustrationNotFound, c)
}

// StrokeCount implements Provider.
func (ch Chain) StrokeCount(ctx context.Context, c Character) (int, error) {
	return strokeCount(ctx, ch, c)
}

// IsNotFound reports whether err signals a missing illustration or stroke count.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIllustrationNotFound) || errors.Is(err, ErrStrokeCountUnavailable)
}

// loggerOrDiscard returns l, or a logger writing nowhere when l is nil.
func loggerOrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
