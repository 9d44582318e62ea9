package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler()
	s.Register(Job{Name: "bad", Schedule: "not a schedule", Run: func(context.Context) error { return nil }})

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler()
	s.Register(Job{Name: "weekly", Schedule: "0 0 * * 1", Run: func(context.Context) error { return nil }})

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestRunAppliesTimeout(t *testing.T) {
	s := NewScheduler()

	var deadlineSet bool
	s.run(Job{Name: "timed", Timeout: time.Minute, Run: func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		return nil
	}})
	assert.True(t, deadlineSet)

	called := false
	s.run(Job{Name: "failing", Run: func(ctx context.Context) error {
		called = true
		_, has := ctx.Deadline()
		assert.False(t, has)
		return errors.New("boom")
	}})
	assert.True(t, called)
}

func TestPanickingJobDoesNotStopScheduler(t *testing.T) {
	s := NewScheduler()
	s.Register(Job{Name: "explodes", Schedule: "@every 1h", Run: func(context.Context) error {
		panic("boom")
	}})
	ran := make(chan struct{}, 1)
	s.Register(Job{Name: "steady", Schedule: "@every 1h", Run: func(context.Context) error {
		ran <- struct{}{}
		return nil
	}})
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	entries := s.cron.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotPanics(t, e.WrappedJob.Run)
	}

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("steady job did not run after the panic")
	}
	assert.Len(t, s.cron.Entries(), 2)
}
