package service

import (
	"context"
	"errors"
	"fmt"
)

// Outcome is the result of one best-effort attempt.
type Outcome[T any] struct {
	Item T
	Err  error
}

// AttemptEach calls fn for every item and collects the results. A failing or panicking item
// never stops the remaining ones. Items left when ctx is cancelled get ctx.Err().
func AttemptEach[T any](ctx context.Context, items []T, fn func(context.Context, T) error) []Outcome[T] {
	out := make([]Outcome[T], 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			out = append(out, Outcome[T]{Item: item, Err: err})
			continue
		}
		out = append(out, Outcome[T]{Item: item, Err: attempt(ctx, item, fn)})
	}
	return out
}

func attempt[T any](ctx context.Context, item T, fn func(context.Context, T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("attempt panicked: %v", r)
		}
	}()
	return fn(ctx, item)
}

// Failures returns the outcomes that carry an error.
func Failures[T any](outcomes []Outcome[T]) []Outcome[T] {
	var out []Outcome[T]
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// JoinErrors joins the errors of the failed outcomes, or returns nil.
func JoinErrors[T any](outcomes []Outcome[T]) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
