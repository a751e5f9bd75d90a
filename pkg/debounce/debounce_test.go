package debounce_test

import (
	"sync"
	"testing"
	"time"

	"github.com/niksmo/paintstore/pkg/debounce"
	"github.com/stretchr/testify/assert"
)

const delay = 30 * time.Millisecond

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) fn(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, v)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncer(t *testing.T) {
	t.Run("DispatchesLatestAfterQuiet", func(t *testing.T) {
		var r recorder
		d := debounce.New(delay, r.fn)
		defer d.Stop()

		d.Call("a")
		d.Call("b")
		d.Call("c")
		assert.True(t, d.Pending())
		assert.Empty(t, r.got())

		assert.Eventually(t, func() bool {
			return len(r.got()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"c"}, r.got())
		assert.False(t, d.Pending())
	})

	t.Run("CancelDropsPending", func(t *testing.T) {
		var r recorder
		d := debounce.New(delay, r.fn)
		defer d.Stop()

		d.Call("a")
		d.Cancel()
		time.Sleep(3 * delay)

		assert.Empty(t, r.got())
	})

	t.Run("FlushRunsSynchronously", func(t *testing.T) {
		var r recorder
		d := debounce.New(time.Hour, r.fn)
		defer d.Stop()

		d.Flush()
		assert.Empty(t, r.got())

		d.Call("x")
		d.Flush()
		assert.Equal(t, []string{"x"}, r.got())
		assert.False(t, d.Pending())
	})

	t.Run("EqualSuppressesRepeat", func(t *testing.T) {
		var r recorder
		d := debounce.New(time.Hour, r.fn,
			debounce.WithEqual(func(a, b string) bool { return a == b }),
		)
		defer d.Stop()

		for _, v := range []string{"a", "a", "b", "b", "a"} {
			d.Call(v)
			d.Flush()
		}
		assert.Equal(t, []string{"a", "b", "a"}, r.got())
	})

	t.Run("InitialSeedsLast", func(t *testing.T) {
		var r recorder
		d := debounce.New(time.Hour, r.fn,
			debounce.WithEqual(func(a, b string) bool { return a == b }),
			debounce.WithInitial(""),
		)
		defer d.Stop()

		d.Call("")
		d.Flush()
		assert.Empty(t, r.got())

		d.Call("q")
		d.Flush()
		d.Reset("")
		d.Call("q")
		d.Flush()
		assert.Equal(t, []string{"q", "q"}, r.got())
	})

	t.Run("StopIgnoresCalls", func(t *testing.T) {
		var r recorder
		d := debounce.New(delay, r.fn)

		d.Call("a")
		d.Stop()
		d.Call("b")
		time.Sleep(3 * delay)

		assert.Empty(t, r.got())
		assert.False(t, d.Pending())
	})

	t.Run("NilFuncPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			debounce.New[int](delay, nil)
		})
	})
}
