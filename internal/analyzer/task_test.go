package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/siteintel/internal/model"
)

func TestTaskWait(t *testing.T) {
	task := newTask(&model.Analysis{ID: "a1"})

	go func() {
		time.Sleep(10 * time.Millisecond)
		task.finish()
	}()

	require.NoError(t, task.Wait(context.Background()))

	select {
	case <-task.Done():
	default:
		t.Fatal("done channel should be closed after finish")
	}
}

func TestTaskWaitCancelled(t *testing.T) {
	task := newTask(&model.Analysis{ID: "a1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := task.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The task itself is still pending.
	select {
	case <-task.Done():
		t.Fatal("task should not be finished")
	default:
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Get("a1"))

	t1 := newTask(&model.Analysis{ID: "a1"})
	t2 := newTask(&model.Analysis{ID: "a2"})
	r.add(t1)
	r.add(t2)

	assert.Equal(t, 2, r.Len())
	assert.Same(t, t1, r.Get("a1"))
	assert.Same(t, t2, r.Get("a2"))

	r.remove("a1")
	assert.Equal(t, 1, r.Len())
	assert.Nil(t, r.Get("a1"))
}

func TestRegistryDrain(t *testing.T) {
	r := NewRegistry()
	t1 := newTask(&model.Analysis{ID: "a1"})
	t2 := newTask(&model.Analysis{ID: "a2"})
	r.add(t1)
	r.add(t2)

	go func() {
		time.Sleep(10 * time.Millisecond)
		t1.finish()
		t2.finish()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Drain(ctx))
}

func TestRegistryDrainCancelled(t *testing.T) {
	r := NewRegistry()
	r.add(newTask(&model.Analysis{ID: "a1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, r.Drain(ctx), context.DeadlineExceeded)
}
