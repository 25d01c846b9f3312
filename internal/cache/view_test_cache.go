package cache

import "sync"

var _ Cache = (*ViewTestCache)(nil)

// ViewTestCache is a map based Cache for tests, it also counts Clear calls.
type ViewTestCache struct {
	cache  map[string][]byte
	mutex  sync.Mutex
	Clears int
}

func NewViewTestCache() *ViewTestCache {
	return &ViewTestCache{
		cache: make(map[string][]byte),
	}
}

func (vtc *ViewTestCache) Get(key string) ([]byte, bool) {
	vtc.mutex.Lock()
	defer vtc.mutex.Unlock()

	val, ok := vtc.cache[key]
	return val, ok
}

func (vtc *ViewTestCache) Set(key string, value []byte) bool {
	vtc.mutex.Lock()
	defer vtc.mutex.Unlock()

	vtc.cache[key] = value
	return true
}

func (vtc *ViewTestCache) Clear() {
	vtc.mutex.Lock()
	defer vtc.mutex.Unlock()

	vtc.cache = make(map[string][]byte)
	vtc.Clears++
}

func (vtc *ViewTestCache) Len() int {
	vtc.mutex.Lock()
	defer vtc.mutex.Unlock()

	return len(vtc.cache)
}
