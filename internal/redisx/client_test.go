package redisx

import (
	"testing"
	"time"
)

func TestNew_TimeoutApplied(t *testing.T) {
	c := New("127.0.0.1:6379")
	defer c.Close()

	opt := c.Options()
	if opt.ReadTimeout != 2*time.Second || opt.WriteTimeout != 2*time.Second {
		t.Fatalf("timeout not applied: read=%v write=%v", opt.ReadTimeout, opt.WriteTimeout)
	}
}
