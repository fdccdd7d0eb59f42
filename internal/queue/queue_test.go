package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type frame struct {
	cmd  uint16
	data []byte
}

func implementations() map[string]func() Queue[*frame] {
	return map[string]func() Queue[*frame]{
		"lock-free": NewLockFreeQueue[*frame],
		"slice":     func() Queue[*frame] { return NewSliceQueue[*frame](4) },
	}
}

func TestQueue(t *testing.T) {
	for name, newQueue := range implementations() {
		t.Run(name+" Empty Queue", func(t *testing.T) {
			assert := assert.New(t)
			q := newQueue()

			assert.True(q.IsEmpty())
			assert.Equal(0, q.Length())
			_, ok := q.Dequeue()
			assert.False(ok)
			_, ok = q.Peek()
			assert.False(ok)
		})

		t.Run(name+" FIFO order", func(t *testing.T) {
			assert := assert.New(t)
			q := newQueue()

			f1 := &frame{cmd: 0x2619}
			f2 := &frame{cmd: 0x3608, data: []byte{1}}
			q.Enqueue(f1)
			q.Enqueue(f2)
			assert.Equal(2, q.Length())

			head, ok := q.Peek()
			assert.True(ok)
			assert.Same(f1, head)
			assert.Equal(2, q.Length())

			got, ok := q.Dequeue()
			assert.True(ok)
			assert.Same(f1, got)

			got, ok = q.Dequeue()
			assert.True(ok)
			assert.Same(f2, got)
			assert.True(q.IsEmpty())
		})

		t.Run(name+" Reset", func(t *testing.T) {
			assert := assert.New(t)
			q := newQueue()

			q.Enqueue(&frame{cmd: 1})
			q.Enqueue(&frame{cmd: 2})
			q.Reset()
			assert.True(q.IsEmpty())

			q.Enqueue(&frame{cmd: 3})
			got, ok := q.Dequeue()
			assert.True(ok)
			assert.Equal(uint16(3), got.cmd)
		})
	}
}

func TestLockFreeQueue_Concurrency(t *testing.T) {
	assert := assert.New(t)
	q := NewLockFreeQueue[int]()

	var wg sync.WaitGroup
	wg.Add(1000)
	for i := 0; i < 1000; i++ {
		go func(i int) {
			defer wg.Done()
			q.Enqueue(i)
		}(i)
	}
	wg.Wait()
	assert.Equal(1000, q.Length())

	var mu sync.Mutex
	seen := make(map[int]bool, 1000)
	wg.Add(1000)
	for i := 0; i < 1000; i++ {
		go func() {
			defer wg.Done()
			v, ok := q.Dequeue()
			if ok {
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.True(q.IsEmpty())
	assert.Len(seen, 1000)
}

func BenchmarkLockFreeQueue(b *testing.B) {
	q := NewLockFreeQueue[int]()
	for i := 0; i < b.N; i++ {
		q.Enqueue(i)
		q.Dequeue()
	}
}
