package ring

import (
	"sync"
	"testing"
)

func TestNewRoundsUpCapacity(t *testing.T) {
	r := New[int](5)
	if got := r.Cap(); got != 8 {
		t.Errorf("Cap() = %d, want 8", got)
	}
}

func TestPushPopOrder(t *testing.T) {
	r := New[int](4)
	for i := 1; i <= 4; i++ {
		if !r.Push(i) {
			t.Fatalf("Push(%d) failed unexpectedly", i)
		}
	}
	if r.Push(5) {
		t.Fatalf("Push succeeded on full ring")
	}

	for i := 1; i <= 4; i++ {
		v, ok := r.Pop()
		if !ok {
			t.Fatalf("Pop() failed unexpectedly at %d", i)
		}
		if v != i {
			t.Errorf("Pop() = %d, want %d", v, i)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatalf("Pop succeeded on empty ring")
	}
}

func TestLen(t *testing.T) {
	r := New[int](8)
	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
	r.Push(1)
	r.Push(2)
	if got := r.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	r.Pop()
	if got := r.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestConcurrentSingleProducerSingleConsumer(t *testing.T) {
	const n = 100000
	r := New[int](64)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.Push(i) {
				// spin until the consumer drains a slot
			}
		}
	}()

	received := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(received) < n {
			if v, ok := r.Pop(); ok {
				received = append(received, v)
			}
		}
	}()

	wg.Wait()

	for i, v := range received {
		if v != i {
			t.Fatalf("out of order at index %d: got %d, want %d", i, v, i)
		}
	}
}
