package cache

// Cache holds rendered views (timeline, dashboard JSON) keyed by their
// query. Writes to the workouts clear it.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) bool
	Clear()
}
