package xfuture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run 在新 goroutine 中执行 fn 并返回其 Future。
func run(fn func() error) *Future {
	p, f := NewPromise()
	go func() { p.Resolve(fn()) }()
	return f
}

func TestSet_WaitAll(t *testing.T) {
	var set Set
	var count atomic.Int32
	for range 10 {
		set.Add(run(func() error {
			time.Sleep(time.Millisecond)
			count.Add(1)
			return nil
		}))
	}
	set.Add(Invalid())
	set.Add(nil)
	assert.Equal(t, 11, set.Len())

	require.NoError(t, set.Wait())
	assert.Equal(t, int32(10), count.Load())
	assert.Equal(t, 0, set.Len())
	assert.NoError(t, set.Wait())
}

func TestSet_JoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	set := NewSet(
		run(func() error { return errA }),
		run(func() error { return nil }),
		run(func() error { return errB }),
	)
	err := set.Wait()
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, "a\nb", err.Error())
}

func TestSet_Merge(t *testing.T) {
	a := NewSet(Rejected(nil), Invalid())
	b := NewSet(Rejected(nil))
	b.Merge(a)
	b.Merge(b)
	b.Merge(nil)

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 0, a.Len())
	assert.NoError(t, b.Wait())
}

func TestSet_DeferredWait(t *testing.T) {
	var done atomic.Bool
	func() {
		var set Set
		defer func() { _ = set.Wait() }()
		set.Add(run(func() error {
			time.Sleep(5 * time.Millisecond)
			done.Store(true)
			return nil
		}))
	}()
	assert.True(t, done.Load())
}

func TestSet_WaitContextRequeues(t *testing.T) {
	p, slow := NewPromise()
	errFast := errors.New("fast")
	set := NewSet(Rejected(errFast), slow)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := set.WaitContext(ctx)
	assert.ErrorIs(t, err, errFast)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, set.Len())

	p.Resolve(nil)
	assert.NoError(t, set.WaitContext(context.Background()))
	assert.Equal(t, 0, set.Len())
}
