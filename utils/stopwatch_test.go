package utils

import (
	"testing"
	"time"
)

func Test_Watch(t *testing.T) {
	watch := Watch{}

	watch.Start()
	time.Sleep(200 * time.Millisecond)
	if dur := watch.Elapsed(); !FloatEquals(dur.Seconds(), 0.2, 0.05) {
		t.Error("seconds mismatch", dur.Seconds())
	}
	watch.Pause()
	time.Sleep(200 * time.Millisecond)
	if dur := watch.Elapsed(); !FloatEquals(dur.Seconds(), 0.2, 0.05) {
		t.Error("paused seconds mismatch", dur.Seconds())
	}

	watch.UnPause()
	time.Sleep(200 * time.Millisecond)
	if dur := watch.Elapsed(); !FloatEquals(dur.Seconds(), 0.4, 0.05) {
		t.Error("unpaused seconds mismatch", dur.Seconds())
	}
}

func Test_WatchLap(t *testing.T) {
	watch := Watch{}
	watch.Start()
	time.Sleep(100 * time.Millisecond)
	if lap := watch.Lap(); !FloatEquals(lap.Seconds(), 0.1, 0.05) {
		t.Error("first lap mismatch", lap.Seconds())
	}
	time.Sleep(150 * time.Millisecond)
	if lap := watch.Lap(); !FloatEquals(lap.Seconds(), 0.15, 0.05) {
		t.Error("second lap mismatch", lap.Seconds())
	}
	if dur := watch.Elapsed(); !FloatEquals(dur.Seconds(), 0.25, 0.05) {
		t.Error("total mismatch", dur.Seconds())
	}
}
