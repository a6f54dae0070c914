package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func blockingTask(name string, started chan<- string) Task {
	return Task{Name: name, Run: func(ctx context.Context) error {
		started <- name
		<-ctx.Done()
		return ctx.Err()
	}}
}

func TestGroup_StartStop(t *testing.T) {
	started := make(chan string, 2)
	g := NewGroup(blockingTask("watch", started), blockingTask("other", started))

	require.NoError(t, g.Start(context.Background()))
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("task did not start")
		}
	}
	require.Equal(t, 2, g.Status().Running)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Stop(ctx))

	status := g.Status()
	require.Equal(t, 0, status.Running)
	require.Equal(t, 2, status.Finished)
	require.Equal(t, 0, status.Failed)
}

func TestGroup_StartTwice(t *testing.T) {
	g := NewGroup()
	require.NoError(t, g.Start(context.Background()))
	require.Error(t, g.Start(context.Background()))
	require.NoError(t, g.Stop(context.Background()))
}

func TestGroup_StopWithoutStart(t *testing.T) {
	require.NoError(t, NewGroup().Stop(context.Background()))
}

func TestGroup_FailedTask(t *testing.T) {
	done := make(chan struct{})
	g := NewGroup(Task{Name: "broken", Run: func(context.Context) error {
		defer close(done)
		return errors.New("watch inbox: no such directory")
	}})

	require.NoError(t, g.Start(context.Background()))
	<-done
	require.NoError(t, g.Stop(context.Background()))

	require.Equal(t, 1, g.Status().Failed)
}

func TestGroup_StopTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	g := NewGroup(Task{Name: "stubborn", Run: func(context.Context) error {
		<-release
		return nil
	}})
	require.NoError(t, g.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, g.Stop(ctx), context.DeadlineExceeded)
}
