package playback

import (
	"sync"
	"time"
)

// Task is a scheduled callback that can be cancelled. Stop never blocks and
// may be called more than once.
type Task interface {
	Stop()
}

// Clock schedules callbacks. Every repeats fn each d; AfterFunc runs fn once.
type Clock interface {
	Every(d time.Duration, fn func()) Task
	AfterFunc(d time.Duration, fn func()) Task
}

// TickerClock is the wall-clock implementation
type TickerClock struct{}

type tickerTask struct {
	stop chan struct{}
	once sync.Once
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// Every runs fn on its own goroutine after each period until stopped
func (TickerClock) Every(d time.Duration, fn func()) Task {
	t := &tickerTask{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return t
}

type timerTask struct {
	timer *time.Timer
}

func (t timerTask) Stop() {
	t.timer.Stop()
}

// AfterFunc runs fn once after d
func (TickerClock) AfterFunc(d time.Duration, fn func()) Task {
	return timerTask{timer: time.AfterFunc(d, fn)}
}
