package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodicWorker_RunsImmediatelyAndSurvivesErrors(t *testing.T) {
	var calls atomic.Int32
	w := Func{WorkerName: "flaky", Fn: func(ctx context.Context) error {
		n := calls.Add(1)
		if n == 1 {
			return errors.New("boom")
		}
		if n == 2 {
			panic("kaboom")
		}
		return nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	pw := NewPeriodicWorker(w, 5*time.Millisecond)
	pw.Start(ctx)

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	cancel()
	assert.True(t, pw.Stop(time.Second))
}

func TestGroup_StopCancelsAll(t *testing.T) {
	var a, b atomic.Int32
	g := NewGroup(context.Background())
	g.Add(Func{WorkerName: "a", Fn: func(context.Context) error { a.Add(1); return nil }}, time.Hour)
	g.Add(Func{WorkerName: "b", Fn: func(context.Context) error { b.Add(1); return nil }}, time.Hour)
	g.Start()

	assert.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, time.Millisecond)
	g.Stop(time.Second)
}
