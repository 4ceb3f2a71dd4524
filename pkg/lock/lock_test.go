package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex(0)
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Lock(context.Background(), "attempt:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, m.Len())
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex(50 * time.Millisecond)
	r1, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer r1()

	r2, err := m.Lock(context.Background(), "b")
	require.NoError(t, err)
	r2()
}

func TestKeyedMutex_Timeout(t *testing.T) {
	m := NewKeyedMutex(20 * time.Millisecond)
	release, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)

	_, err = m.Lock(context.Background(), "a")
	assert.ErrorIs(t, err, ErrTimeout)

	release()
	assert.Zero(t, m.Len())
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	m := NewKeyedMutex(0)
	release, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyedMutex_ReleaseIsIdempotent(t *testing.T) {
	m := NewKeyedMutex(20 * time.Millisecond)
	release, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)
	release()
	release()

	again, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)
	again()
}
