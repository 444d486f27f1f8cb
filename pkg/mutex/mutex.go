package mutex

import (
	"sync"
	"time"
)

// KeyedMutex hands out one mutex per key (a wallet address) and forgets idle ones
type KeyedMutex struct {
	mutexes    map[string]*mutexEntry
	mapMutex   sync.Mutex
	cleanupTTL time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

type mutexEntry struct {
	mutex      sync.Mutex
	lastAccess time.Time
}

// New creates a KeyedMutex whose idle entries are dropped after cleanupTTL
func New(cleanupTTL time.Duration) *KeyedMutex {
	km := &KeyedMutex{
		mutexes:    make(map[string]*mutexEntry),
		cleanupTTL: cleanupTTL,
		stopCh:     make(chan struct{}),
	}

	go km.cleanup()

	return km
}

// Get returns the mutex for key, creating one if needed
func (km *KeyedMutex) Get(key string) *sync.Mutex {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	e, ok := km.mutexes[key]
	if !ok {
		e = &mutexEntry{}
		km.mutexes[key] = e
	}
	e.lastAccess = time.Now()
	return &e.mutex
}

// WithLock runs fn while holding the mutex for key
func (km *KeyedMutex) WithLock(key string, fn func() error) error {
	m := km.Get(key)
	m.Lock()
	defer m.Unlock()
	return fn()
}

// Size returns the number of mutexes currently stored
func (km *KeyedMutex) Size() int {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()
	return len(km.mutexes)
}

func (km *KeyedMutex) cleanup() {
	ticker := time.NewTicker(km.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			km.removeUnused()
		case <-km.stopCh:
			return
		}
	}
}

// removeUnused drops mutexes that are idle and not held
func (km *KeyedMutex) removeUnused() {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	now := time.Now()
	for key, e := range km.mutexes {
		if now.Sub(e.lastAccess) > km.cleanupTTL && e.mutex.TryLock() {
			e.mutex.Unlock()
			delete(km.mutexes, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (km *KeyedMutex) Stop() {
	km.stopOnce.Do(func() { close(km.stopCh) })
}
