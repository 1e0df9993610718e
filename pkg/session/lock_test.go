package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/slidedeck/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		pid := fmt.Sprintf("patient-%d", i)
		_, _ = mgr.Open(ctx, pid)
		_ = mgr.Delete(ctx, pid)
	}

	assert.Empty(t, mgr.locks, "locks must be released after use")
	assert.Empty(t, mgr.editors)
}
