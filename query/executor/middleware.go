package executor

import (
	"context"
	"time"

	"github.com/vesperdb/vesper/internal/debug"
)

// QueryEvent describes one statement execution as seen by middleware. SQL is
// the parameterized text; argument values are never exposed, only their
// count.
type QueryEvent struct {
	SQL      string
	Args     int
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Err      error
}

// Middleware intercepts statement execution. Implementations must call next
// exactly once to run the statement (or the rest of the chain); Duration,
// End and Err are populated once next returns.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// dispatch runs exec through the middleware chain, timing it and recording
// the outcome on the event.
func (s *session) dispatch(ctx context.Context, sql string, args int, exec func() error) error {
	debug.Debug("executing statement", "sql", sql, "args", args)

	event := &QueryEvent{SQL: sql, Args: args, Start: time.Now()}
	index := 0

	var next func() error
	next = func() error {
		if index >= len(s.mws) {
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Err = err
			return err
		}
		mw := s.mws[index]
		index++
		return mw(ctx, event, next)
	}

	return next()
}

// LoggingMiddleware logs every statement through the debug logger, including
// its duration and outcome.
func LoggingMiddleware() Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil {
			debug.Error("statement failed", "sql", event.SQL, "duration", event.Duration, "err", err)
		} else {
			debug.Debug("statement completed", "sql", event.SQL, "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware reports the duration of every statement to onTiming.
func TimingMiddleware(onTiming func(sql string, d time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		onTiming(event.SQL, event.Duration)
		return err
	}
}
