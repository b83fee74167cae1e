package fallback

import (
	"sync"
	"testing"
)

func TestJoinAdmitsUntilCapacity(t *testing.T) {
	r := NewRegistry()
	r.Seed(1, 2, 0)

	d1, ok := r.Join(1)
	if !ok || !d1.Admitted || d1.Registered != 1 {
		t.Fatalf("unexpected first decision: %+v ok=%v", d1, ok)
	}
	d2, _ := r.Join(1)
	if !d2.Admitted || d2.Registered != 2 {
		t.Fatalf("unexpected second decision: %+v", d2)
	}
	d3, _ := r.Join(1)
	if d3.Admitted || d3.Registered != 2 {
		t.Fatalf("expected waitlist at capacity, got %+v", d3)
	}
}

func TestJoinUnknownResource(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Join(42); ok {
		t.Fatal("expected unseeded resource to be unknown")
	}
	if _, ok := r.Snapshot(42); ok {
		t.Fatal("expected unseeded snapshot to be unknown")
	}
}

func TestSeedResetsCounts(t *testing.T) {
	r := NewRegistry()
	r.Seed(1, 1, 1)

	if d, _ := r.Join(1); d.Admitted {
		t.Fatalf("expected full resource, got %+v", d)
	}

	r.Seed(1, 3, 0)
	if d, _ := r.Join(1); !d.Admitted {
		t.Fatalf("expected admission after reseed, got %+v", d)
	}
}

func TestSnapshotDoesNotAdmit(t *testing.T) {
	r := NewRegistry()
	r.Seed(1, 1, 0)

	for i := 0; i < 5; i++ {
		if d, _ := r.Snapshot(1); d.Registered != 0 {
			t.Fatalf("snapshot mutated state: %+v", d)
		}
	}
}

func TestConcurrentJoinsNeverOverAdmit(t *testing.T) {
	r := NewRegistry()
	capacity := 10
	r.Seed(1, capacity, 0)

	var wg sync.WaitGroup
	N := 100
	admitted := make(chan bool, N)
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, ok := r.Join(1)
			admitted <- ok && d.Admitted
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for a := range admitted {
		if a {
			count++
		}
	}
	if count != capacity {
		t.Fatalf("expected exactly %d admissions, got %d", capacity, count)
	}

	d, _ := r.Snapshot(1)
	if d.Registered != capacity {
		t.Fatalf("registered drifted: %+v", d)
	}
}
