package fsops

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathLocks_MutualExclusion(t *testing.T) {
	l := newPathLocks()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("/same")
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.len())
}

func TestPathLocks_DistinctPathsDoNotBlock(t *testing.T) {
	l := newPathLocks()
	unlockA := l.lock("/a")
	unlockB := l.lock("/b")
	assert.Equal(t, 2, l.len())
	unlockA()
	unlockB()
	assert.Equal(t, 0, l.len())
}

func TestCreate_ConcurrentSamePath(t *testing.T) {
	f := New(t.TempDir())
	var wg sync.WaitGroup
	var created, exists int32

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Create(filepath.Join("race", "one.txt"), "x")
			switch {
			case err == nil:
				atomic.AddInt32(&created, 1)
			case errors.Is(err, ErrAlreadyExists):
				atomic.AddInt32(&exists, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), created)
	assert.Equal(t, int32(7), exists)
}
