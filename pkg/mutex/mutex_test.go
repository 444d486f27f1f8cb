package mutex

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestSameKeySameMutex(t *testing.T) {
	defer goleak.VerifyNone(t)

	km := New(time.Minute)
	defer km.Stop()

	assert.Same(t, km.Get("a"), km.Get("a"))
	assert.NotSame(t, km.Get("a"), km.Get("b"))
	assert.Equal(t, 2, km.Size())
}

func TestWithLockSerialises(t *testing.T) {
	defer goleak.VerifyNone(t)

	km := New(time.Minute)
	defer km.Stop()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = km.WithLock("wallet", func() error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInside))
}

func TestIdleEntriesRemoved(t *testing.T) {
	defer goleak.VerifyNone(t)

	km := New(10 * time.Millisecond)
	defer km.Stop()

	km.Get("idle")
	assert.Eventually(t, func() bool { return km.Size() == 0 }, time.Second, 5*time.Millisecond)
}
