package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	assert.Equal(t, 1024, sizeClass(1))
	assert.Equal(t, 1024, sizeClass(1024))
	assert.Equal(t, 2048, sizeClass(1025))
	assert.Equal(t, 4096, sizeClass(3000))
}

func TestGetFloat64_ReturnsZeroedBuffer(t *testing.T) {
	buf := GetFloat64(500)
	require.Len(t, buf, 500)
	for i := range buf {
		buf[i] = 3.5
	}
	PutFloat64(buf)

	again := GetFloat64(500)
	require.Len(t, again, 500)
	for _, v := range again {
		assert.Zero(t, v)
	}
	PutFloat64(again)
}

func TestGetBool_ReturnsZeroedMask(t *testing.T) {
	mask := GetBool(2000)
	require.Len(t, mask, 2000)
	for i := range mask {
		mask[i] = true
	}
	PutBool(mask)

	again := GetBool(2000)
	require.Len(t, again, 2000)
	for _, v := range again {
		assert.False(t, v)
	}
	PutBool(again)
}

func TestPut_NilIsNoOp(t *testing.T) {
	assert.NotPanics(t, func() {
		PutFloat64(nil)
		PutBool(nil)
	})
}

func TestPool_ConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				buf := GetFloat64(1500)
				buf[0] = 1
				buf[len(buf)-1] = 1
				PutFloat64(buf)

				mask := GetBool(700)
				mask[0] = true
				PutBool(mask)
			}
		}()
	}
	wg.Wait()
}
