package index

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	var km keyedMutex
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.lock("same-hash")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	var km keyedMutex
	unlockA := km.lock("hash-a")
	defer unlockA()

	// A different key must not block while hash-a is held.
	done := make(chan struct{})
	go func() {
		unlockB := km.lock("hash-b")
		unlockB()
		close(done)
	}()
	<-done
}
