package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

const (
	typeLabelCount = 1
	typeError      = 2
	typeExtKey     = 3
	typeExtChar    = 4
	typeVariables  = 5
	typeUserData   = 6
	typeArray      = 7
	typeKbdSleep   = 8
	typeRunState   = 9
	typeProcessing = 10
	typeMotion     = 11
)

func testEnums() model.Enums {
	return model.Enums{
		MessageTypes: model.NewEnumTable(map[string]int{
			model.MessageLabelCount: typeLabelCount,
			model.MessageError:      typeError,
			model.MessageExtKey:     typeExtKey,
			model.MessageExtChar:    typeExtChar,
			model.MessageVariables:  typeVariables,
			model.MessageUserData:   typeUserData,
			model.MessageArray:      typeArray,
			model.MessageKbdSleep:   typeKbdSleep,
			model.MessageRunState:   typeRunState,
			model.MessageProcessing: typeProcessing,
			model.MessageMotion:     typeMotion,
		}),
		Keys: model.NewEnumTable(map[string]int{
			"KEY_ENTER": 13,
			"KEY_FEED":  70,
		}),
		Status: model.NewEnumTable(map[string]int{
			model.RawStateOnline:  0,
			model.RawStateOffline: 1,
			model.RawStateError:   2,
		}),
	}
}

// fakeLocalizer counts lookups; when gate is set every lookup blocks on it.
type fakeLocalizer struct {
	mu       sync.Mutex
	calls    int
	gate     chan struct{}
	messages map[int]string
	err      error
}

func (f *fakeLocalizer) Localize(ctx context.Context, codes []int) (map[int]string, error) {
	f.mu.Lock()
	f.calls++
	gate, err, messages := f.gate, f.err, f.messages
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	res := make(map[int]string)
	for _, c := range codes {
		if m, ok := messages[c]; ok {
			res[c] = m
		}
	}
	return res, nil
}

func (f *fakeLocalizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// newDispatchClient returns a client with an installed session that has no
// network connection, for feeding deliveries directly.
func newDispatchClient(t *testing.T, loc Localizer) (*Client, *session) {
	t.Helper()
	c := NewClient(ClientConfig{Logger: zerolog.Nop()})
	s := &session{
		id:     "test",
		epoch:  1,
		enums:  testEnums(),
		log:    zerolog.Nop(),
		closed: make(chan struct{}),
	}
	c.session = s
	c.epoch = 1
	c.errs = NewErrorCache(loc, time.Second)
	c.reducer.Reset(1, model.RawStatus{CurrentState: model.RawStateOnline})
	return c, s
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for value")
	}
	var zero T
	return zero
}

func expectNone[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value: %v", v)
	case <-time.After(100 * time.Millisecond):
	}
}
