package store

import (
	"context"

	"github.com/abhisek/fitrack/internal/appstate"
)

// Collection names shared by every backend.
const (
	CollectionExercises = "availableExercises"
	CollectionFinished  = "finishedExercises"
)

// Subscription is a live watch on a collection.
type Subscription interface {
	// Cancel stops future deliveries. Safe to call more than once.
	Cancel()
}

// Backend is a document store with push-based change feeds. A watch
// delivers the full current list first and again after every change.
// finishedExercises is append-only.
type Backend interface {
	ListExercises(ctx context.Context) ([]appstate.Exercise, error)
	PutExercises(ctx context.Context, exercises []appstate.Exercise) error
	WatchExercises(ctx context.Context, fn func([]appstate.Exercise, error)) (Subscription, error)

	AddFinished(ctx context.Context, rec appstate.FinishedRecord) (appstate.FinishedRecord, error)
	ListFinished(ctx context.Context) ([]appstate.FinishedRecord, error)
	WatchFinished(ctx context.Context, fn func([]appstate.FinishedRecord, error)) (Subscription, error)

	Close() error
}
