package runtime

import (
	"context"
	"testing"
	"time"
)

func TestSignalContext_CancelFuncStopsContext(t *testing.T) {
	ctx, cancel := SignalContext(context.Background())
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}

func TestSignalContext_FollowsParent(t *testing.T) {
	parent, parentCancel := context.WithCancel(context.Background())
	ctx, cancel := SignalContext(parent)
	defer cancel()
	parentCancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with parent")
	}
}
