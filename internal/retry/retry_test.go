package retry

import (
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := Do(func() (int, error) {
		calls++
		return 42, nil
	}, Options{MaxRetries: 3})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != 42 || calls != 1 {
		t.Errorf("got %d after %d calls", got, calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	var delays []time.Duration

	got, err := Do(func() (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	}, Options{
		MaxRetries:  3,
		BaseDelay:   time.Second,
		ShouldRetry: func(error) bool { return true },
		Sleep:       func(d time.Duration) { delays = append(delays, d) },
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls", got, calls)
	}

	// Backoff doubles: 1s, 2s.
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	var attempts []int

	_, err := Do(func() (struct{}, error) {
		calls++
		return struct{}{}, errTransient
	}, Options{
		MaxRetries:  3,
		ShouldRetry: func(error) bool { return true },
		OnRetry:     func(attempt, max int) { attempts = append(attempts, attempt) },
		Sleep:       func(time.Duration) {},
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("err = %v, want the last failure", err)
	}

	// MaxRetries=3 means 4 total attempts and 3 retry notifications.
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Errorf("retry attempts = %v, want [1 2 3]", attempts)
	}
}

func TestDoStopsWhenNotRetryable(t *testing.T) {
	calls := 0
	_, err := Do(func() (struct{}, error) {
		calls++
		return struct{}{}, errTransient
	}, Options{
		MaxRetries:  3,
		ShouldRetry: func(error) bool { return false },
		Sleep:       func(time.Duration) {},
	})
	if err == nil || calls != 1 {
		t.Errorf("err = %v after %d calls, want immediate failure", err, calls)
	}
}

func TestDoNilPredicateNeverRetries(t *testing.T) {
	calls := 0
	_, err := Do(func() (struct{}, error) {
		calls++
		return struct{}{}, errTransient
	}, Options{MaxRetries: 3, Sleep: func(time.Duration) {}})
	if err == nil || calls != 1 {
		t.Errorf("err = %v after %d calls, want no retries", err, calls)
	}
}
