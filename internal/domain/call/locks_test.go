package call_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/warmline/internal/domain/call"
)

func TestLockTable_SerializesPerCall(t *testing.T) {
	locks := call.NewLockTable()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("c1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
}

func TestLockTable_IndependentCalls(t *testing.T) {
	locks := call.NewLockTable()

	unlockA := locks.Lock("c1")
	defer unlockA()

	// A different call's lock must not block.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("c2")
		unlockB()
		close(done)
	}()
	<-done
}
