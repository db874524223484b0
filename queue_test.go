package asyncrt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFOSingleProducer(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	for i := 0; i < 100; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueEmpty(t *testing.T) {
	q := NewQueue[int]()
	assert.True(t, q.Empty())
	q.Push(1)
	assert.False(t, q.Empty())
}

func TestQueueConcurrentProducersConsumers(t *testing.T) {
	q := NewQueue[int]()
	const producers = 8
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(base*perProducer + i)
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i := 0; i < producers*perProducer; i++ {
		v, ok := q.Pop()
		require.True(t, ok, "expected %d items, got fewer", producers*perProducer)
		assert.False(t, seen[v], "duplicate value popped: %d", v)
		seen[v] = true
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueNodeReuse(t *testing.T) {
	q := NewQueue[int]()
	for round := 0; round < 3; round++ {
		for i := 0; i < 50; i++ {
			q.Push(i)
		}
		for i := 0; i < 50; i++ {
			v, ok := q.Pop()
			require.True(t, ok)
			assert.Equal(t, i, v)
		}
	}
}
