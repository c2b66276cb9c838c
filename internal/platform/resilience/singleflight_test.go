package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight[int]
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			got, err, _ := g.Do("league-1", func() (int, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return 42, nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
			if got != 42 {
				t.Errorf("unexpected value: %d", got)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestSingleFlight_DoPropagatesErrorAndForgetsKey(t *testing.T) {
	var g SingleFlight[string]
	boom := errors.New("boom")

	_, err, shared := g.Do("k", func() (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if shared {
		t.Fatalf("single caller should not be reported as shared")
	}

	got, err, _ := g.Do("k", func() (string, error) { return "second", nil })
	if err != nil || got != "second" {
		t.Fatalf("expected fresh call after failure, got %q err=%v", got, err)
	}
}
