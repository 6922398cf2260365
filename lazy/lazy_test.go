package lazy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Get(t *testing.T) {
	t.Parallel()

	var calls int32
	v := New(func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "SD Zoo", nil
	})
	assert.Equal(t, NotLoaded, v.State())
	_, ok := v.Peek()
	assert.False(t, ok)

	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SD Zoo", got)
	assert.Equal(t, Loaded, v.State())

	_, err = v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	v.Reset()
	assert.Equal(t, NotLoaded, v.State())
	_, err = v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestValue_Concurrent(t *testing.T) {
	t.Parallel()

	var calls int32
	release := make(chan struct{})
	v := New(func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := v.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 42, got)
		}()
	}
	require.Eventually(t, func() bool { return v.State() == Loading }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestValue_Error(t *testing.T) {
	t.Parallel()

	fail := true
	v := New(func(context.Context) (int, error) {
		if fail {
			return 0, errors.New("connection refused")
		}
		return 1, nil
	})
	_, err := v.Get(context.Background())
	require.EqualError(t, err, "connection refused")
	assert.Equal(t, NotLoaded, v.State())

	fail = false
	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestValue_NoLoader(t *testing.T) {
	t.Parallel()

	var v Value[int]
	_, err := v.Get(context.Background())
	require.ErrorIs(t, err, ErrNoLoader)

	v.Set(3)
	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = Of(5).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestHydrate(t *testing.T) {
	t.Parallel()

	type zoo struct{ Id, Visitors int }
	var entities []string
	h := HydratorFunc(func(_ context.Context, instance any, entity string) error {
		entities = append(entities, entity)
		instance.(*zoo).Visitors = 100
		return nil
	})
	v := New(Hydrate(h, &zoo{Id: 1}, "Zoo"))
	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, got.Visitors)
	assert.Equal(t, []string{"Zoo"}, entities)
}
