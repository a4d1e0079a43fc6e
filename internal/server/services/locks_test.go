package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestAccountLocks_SerializesSameAccount(t *testing.T) {
	l := NewAccountLocks()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("a")
			defer unlock()
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, l.size())
}

func TestAccountLocks_IndependentAccounts(t *testing.T) {
	l := NewAccountLocks()

	unlockA := l.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := l.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
	unlockA()
	assert.Zero(t, l.size())
}

func TestJanitor_RunOnce(t *testing.T) {
	var calls []string
	j := NewJanitor(time.Minute, logging.Discard(),
		Task{Name: "broken", Run: func(context.Context) (int64, error) {
			calls = append(calls, "broken")
			return 0, assert.AnError
		}},
		Task{Name: "ok", Run: func(context.Context) (int64, error) {
			calls = append(calls, "ok")
			return 3, nil
		}},
	)

	j.RunOnce(context.Background())
	assert.Equal(t, []string{"broken", "ok"}, calls)
}

func TestJanitor_RunStopsOnCancel(t *testing.T) {
	var runs atomic.Int32
	j := NewJanitor(5*time.Millisecond, logging.Discard(), Task{Name: "tick", Run: func(context.Context) (int64, error) {
		runs.Add(1)
		return 0, nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
