package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestCacheGetSet(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New[float64](time.Minute)
	defer c.Stop()

	_, ok := c.Get("wallet")
	assert.False(t, ok)

	c.Set("wallet", 1.5)
	v, ok := c.Get("wallet")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
	assert.Equal(t, 1, c.Size())

	c.Delete("wallet")
	_, ok = c.Get("wallet")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New[string](20 * time.Millisecond)
	defer c.Stop()

	c.Set("k", "v")
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)

	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 10*time.Millisecond)
}

func TestCacheClearAndDoubleStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	assert.Equal(t, 0, c.Size())

	c.Stop()
	c.Stop()
}
