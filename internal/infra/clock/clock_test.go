package clock

import (
	"testing"
	"time"
)

func TestReal_NowAdvances(t *testing.T) {
	c := New()
	first := c.Now()
	time.Sleep(time.Millisecond)
	second := c.Now()
	if !second.After(first) {
		t.Errorf("second Now() = %v, want after first %v", second, first)
	}
}
