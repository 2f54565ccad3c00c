package utils

import (
	"sync"
	"time"
)

// Watch tracks a total elapsed time plus laps, where a lap is the time since the previous Lap call.
// Paused time is excluded from both.
type Watch struct {
	mu        sync.Mutex
	paused    bool
	pauseTime time.Time
	lapPause  time.Time
	startTime time.Time
	lapTime   time.Time
	pausedFor time.Duration
	lapPaused time.Duration
}

func (w *Watch) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		panic("watch cant start because paused")
	}
	w.startTime = time.Now()
	w.lapTime = w.startTime
	w.pausedFor = 0
	w.lapPaused = 0
}

func (w *Watch) Elapsed() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.since(w.startTime, w.pausedFor, w.pauseTime)
}

// Lap returns the time since the last lap (or start), and begins a new lap.
func (w *Watch) Lap() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	lap := w.since(w.lapTime, w.lapPaused, w.lapPause)
	w.lapTime = time.Now()
	w.lapPaused = 0
	w.lapPause = w.lapTime
	return lap
}

func (w *Watch) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		panic("watch already paused")
	}
	w.pauseTime = time.Now()
	w.lapPause = w.pauseTime
	w.paused = true
}

func (w *Watch) UnPause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.paused {
		panic("watch wasn't paused")
	}
	w.paused = false
	w.pausedFor += time.Since(w.pauseTime)
	w.lapPaused += time.Since(w.lapPause)
}

// Must hold the lock.
func (w *Watch) since(from time.Time, paused time.Duration, pausedAt time.Time) time.Duration {
	now := time.Now()
	if w.paused {
		paused += now.Sub(pausedAt)
	}
	return now.Sub(from) - paused
}
