package cache

import (
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var _ Cache = (*ViewCache)(nil)

const defaultViewExpire = 10 * time.Minute

type ViewCache struct {
	mainCache *freecache.Cache
	expire    time.Duration
}

// NewViewCache creates a freecache backed cache of sizeMB megabytes
// (freecache enforces a 512KB minimum).
func NewViewCache(sizeMB int) *ViewCache {
	return &ViewCache{
		mainCache: freecache.NewCache(sizeMB * 1024 * 1024),
		expire:    defaultViewExpire,
	}
}

func (vc *ViewCache) Get(key string) ([]byte, bool) {
	val, err := vc.mainCache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (vc *ViewCache) Set(key string, value []byte) bool {
	if err := vc.mainCache.Set([]byte(key), value, int(vc.expire.Seconds())); err != nil {
		log.Warnf("view cache set [%s]: %s", key, err)
		return false
	}
	return true
}

func (vc *ViewCache) Clear() {
	vc.mainCache.Clear()
}
