package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

func TestErrorCacheCoalescesConcurrentMisses(t *testing.T) {
	loc := &fakeLocalizer{gate: make(chan struct{}), messages: map[int]string{42: "Head open"}}
	cache := NewErrorCache(loc, time.Second)

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg, err := cache.Resolve(context.Background(), 42)
			if err != nil {
				t.Errorf("resolve: %v", err)
			}
			results[i] = msg
		}(i)
	}
	deadline := time.Now().Add(2 * time.Second)
	for loc.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// give the second caller time to join the in-flight lookup
	time.Sleep(50 * time.Millisecond)
	close(loc.gate)
	wg.Wait()

	if loc.Calls() != 1 {
		t.Fatalf("expected 1 fetch, got %d", loc.Calls())
	}
	if results[0] != "Head open" || results[1] != "Head open" {
		t.Fatalf("unexpected results: %q", results)
	}
}

func TestErrorCacheHitSkipsFetch(t *testing.T) {
	loc := &fakeLocalizer{messages: map[int]string{7: "Paper end"}}
	cache := NewErrorCache(loc, time.Second)
	for i := 0; i < 3; i++ {
		msg, err := cache.Resolve(context.Background(), 7)
		if err != nil || msg != "Paper end" {
			t.Fatalf("resolve: %q %v", msg, err)
		}
	}
	if loc.Calls() != 1 {
		t.Fatalf("expected 1 fetch, got %d", loc.Calls())
	}
	if msg, ok := cache.Lookup(7); !ok || msg != "Paper end" {
		t.Fatalf("lookup: %q %v", msg, ok)
	}
}

func TestErrorCacheFailureNotCached(t *testing.T) {
	loc := &fakeLocalizer{err: errors.New("boom")}
	cache := NewErrorCache(loc, time.Second)

	_, err := cache.Resolve(context.Background(), 9)
	var lerr *model.LocalizationFetchError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LocalizationFetchError, got %v", err)
	}

	loc.mu.Lock()
	loc.err = nil
	loc.messages = map[int]string{9: "Ribbon end"}
	loc.mu.Unlock()
	msg, err := cache.Resolve(context.Background(), 9)
	if err != nil || msg != "Ribbon end" {
		t.Fatalf("retry resolve: %q %v", msg, err)
	}
	if loc.Calls() != 2 {
		t.Fatalf("expected 2 fetches, got %d", loc.Calls())
	}
}

func TestErrorCacheMissingCode(t *testing.T) {
	cache := NewErrorCache(&fakeLocalizer{}, time.Second)
	if _, err := cache.Resolve(context.Background(), 1); err == nil {
		t.Fatalf("expected error for unknown code")
	}
}
