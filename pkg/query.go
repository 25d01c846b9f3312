package pkg

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// QueryInt reads an optional int query param, returning def when missing.
func QueryInt(q url.Values, key string, def int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("parameter <%s> NaN: %w", key, err)
	}
	return v, nil
}

// QueryDate reads an optional YYYY-MM-DD query param as UTC midnight.
func QueryDate(q url.Values, key string) (*time.Time, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parameter <%s> not a YYYY-MM-DD date: %w", key, err)
	}
	return &d, nil
}
