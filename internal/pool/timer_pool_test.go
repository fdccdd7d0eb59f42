package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerPool(t *testing.T) {
	assert := assert.New(t)

	t.Run("Get and Put", func(t *testing.T) {
		timer1 := GetTimer(10 * time.Millisecond)
		assert.NotNil(timer1)
		PutTimer(timer1)

		timer2 := GetTimer(20 * time.Millisecond)
		assert.NotNil(timer2)
		<-timer2.C
		PutTimer(timer2)
	})

	t.Run("Put Active Timer", func(t *testing.T) {
		timer1 := GetTimer(100 * time.Millisecond)
		PutTimer(timer1)

		begin := time.Now()
		timer2 := GetTimer(30 * time.Millisecond)
		<-timer2.C
		assert.GreaterOrEqual(time.Since(begin), 30*time.Millisecond)
		PutTimer(timer2)
	})

	t.Run("Concurrent", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				timer := GetTimer(time.Millisecond)
				<-timer.C
				PutTimer(timer)
			}()
		}
		wg.Wait()
	})
}

func TestSleep(t *testing.T) {
	require := require.New(t)

	begin := time.Now()
	require.NoError(Sleep(context.Background(), 20*time.Millisecond))
	require.GreaterOrEqual(time.Since(begin), 20*time.Millisecond)

	require.NoError(Sleep(context.Background(), 0))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	begin = time.Now()
	err := Sleep(ctx, time.Second)
	require.ErrorIs(err, context.DeadlineExceeded)
	require.Less(time.Since(begin), 500*time.Millisecond)

	canceled, cancel2 := context.WithCancel(context.Background())
	cancel2()
	require.ErrorIs(Sleep(canceled, 0), context.Canceled)
}
