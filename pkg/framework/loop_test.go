package framework

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingController struct {
	lock      sync.Mutex
	ticks     int
	finalized int
	stopAt    int
	msgs      []Message
}

func (c *countingController) Control(cc ControlContext) error {
	cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
		mctx.MessageTaken()
		c.lock.Lock()
		c.msgs = append(c.msgs, mctx.CurrentMessage())
		c.lock.Unlock()
	}))
	c.lock.Lock()
	c.ticks++
	ticks := c.ticks
	c.lock.Unlock()
	if c.stopAt > 0 && ticks >= c.stopAt {
		cc.Stop()
	}
	return nil
}

func (c *countingController) Finalize(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.finalized++
	return nil
}

type testMsg struct{ n int }

func (m *testMsg) NewMessage() Message { return &testMsg{} }

type postingRunnable struct{}

func (r *postingRunnable) Run(ctx context.Context) error {
	ctl := LoopCtlFrom(ctx)
	ctl.PostMessage(&testMsg{n: 1})
	ctl.TriggerNext()
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopStop(t *testing.T) {
	ctl := &countingController{stopAt: 3}
	loop := NewLoop()
	loop.Interval = time.Millisecond
	loop.AddController(PrLvControl, ctl)
	require.NoError(t, loop.Run(context.Background()))
	require.Equal(t, 3, ctl.ticks)
	require.Equal(t, 1, ctl.finalized)
}

func TestLoopCancel(t *testing.T) {
	ctl := &countingController{}
	loop := NewLoop()
	loop.Interval = time.Millisecond
	loop.AddController(PrLvControl, ctl)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := loop.Run(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Equal(t, 1, ctl.finalized)
}

func TestLoopMessages(t *testing.T) {
	ctl := &countingController{}
	loop := NewLoop()
	loop.Interval = time.Hour
	loop.AddController(PrLvControl, ctl)
	loop.AddRunnable(&postingRunnable{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	require.Eventually(t, func() bool {
		ctl.lock.Lock()
		defer ctl.lock.Unlock()
		return len(ctl.msgs) == 1
	}, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Equal(t, &testMsg{n: 1}, ctl.msgs[0])
}

func TestRunnerWait(t *testing.T) {
	failure := errors.New("failure")
	runner := NewRunner().Go(
		NamedRun("fail", RunnableFunc(func(ctx context.Context) error { return failure })),
		NamedRun("wait", RunnableFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
	)
	err := runner.Wait()
	require.ErrorIs(t, err, failure)
	var runnerErr *RunnerError
	require.True(t, errors.As(err, &runnerErr))
	require.Equal(t, "fail", runnerErr.Name)
}

func TestLoopFinalizerOrder(t *testing.T) {
	var order []string
	loop := NewLoop()
	loop.Interval = time.Millisecond
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Stop()
		return nil
	}))
	loop.AddFinalizer(
		FinalizerFunc(func(context.Context) error {
			order = append(order, "first")
			return errors.New("logged only")
		}),
		FinalizerFunc(func(ctx context.Context) error {
			require.NoError(t, ctx.Err())
			order = append(order, "second")
			return nil
		}),
	)
	require.NoError(t, loop.Run(context.Background()))
	require.Equal(t, []string{"first", "second"}, order)
}
