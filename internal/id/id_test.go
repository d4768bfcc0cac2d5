package id

import (
	"regexp"
	"sync"
	"testing"
)

func TestExchange_Format(t *testing.T) {
	// UUID v4 format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	for i := 0; i < 100; i++ {
		id := Exchange()
		if !uuidRegex.MatchString(id) {
			t.Errorf("Exchange() = %q, does not match UUID v4 format", id)
		}
	}
}

func TestExchange_Uniqueness(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := Exchange()
		if seen[id] {
			t.Fatalf("Exchange() generated duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestExchange_Concurrent(t *testing.T) {
	const goroutines = 50
	const perGoroutine = 100

	results := make(chan string, goroutines*perGoroutine)
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				results <- Exchange()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, goroutines*perGoroutine)
	for id := range results {
		if seen[id] {
			t.Fatalf("Exchange() concurrent duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestShort_Length(t *testing.T) {
	id := Short()
	if len(id) != 16 {
		t.Errorf("Short() length = %d, want 16", len(id))
	}
}

func TestShort_HexOnly(t *testing.T) {
	hexRegex := regexp.MustCompile(`^[0-9a-f]{16}$`)
	for i := 0; i < 100; i++ {
		id := Short()
		if !hexRegex.MatchString(id) {
			t.Errorf("Short() = %q, not valid hex", id)
		}
	}
}

func TestShort_Uniqueness(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := Short()
		if seen[id] {
			t.Fatalf("Short() generated duplicate: %s", id)
		}
		seen[id] = true
	}
}
