package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

// Localizer resolves error codes to human-readable messages.
type Localizer interface {
	Localize(ctx context.Context, codes []int) (map[int]string, error)
}

// ErrorCache memoizes localized error messages. Concurrent misses for the
// same code share one request.
type ErrorCache struct {
	src     Localizer
	timeout time.Duration

	mu       sync.RWMutex
	messages map[int]string
	group    singleflight.Group
}

func NewErrorCache(src Localizer, timeout time.Duration) *ErrorCache {
	return &ErrorCache{src: src, timeout: timeout, messages: make(map[int]string)}
}

// Lookup returns a cached message without I/O.
func (c *ErrorCache) Lookup(code int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msg, ok := c.messages[code]
	return msg, ok
}

// Resolve returns the message for code, fetching it on a miss. Failed
// lookups are not cached.
func (c *ErrorCache) Resolve(ctx context.Context, code int) (string, error) {
	if msg, ok := c.Lookup(code); ok {
		return msg, nil
	}
	v, err, _ := c.group.Do(strconv.Itoa(code), func() (any, error) {
		if msg, ok := c.Lookup(code); ok {
			return msg, nil
		}
		fetchCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.timeout)
			defer cancel()
		}
		res, err := c.src.Localize(fetchCtx, []int{code})
		if err != nil {
			return "", &model.LocalizationFetchError{Codes: []int{code}, Err: err}
		}
		msg, ok := res[code]
		if !ok {
			return "", &model.LocalizationFetchError{Codes: []int{code}, Err: fmt.Errorf("no message returned")}
		}
		c.mu.Lock()
		c.messages[code] = msg
		c.mu.Unlock()
		return msg, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
