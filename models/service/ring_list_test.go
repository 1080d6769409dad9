package service_test

import (
	"sync"
	"testing"

	"github.com/APTrust/integrity-services/models/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRingList(t *testing.T) {
	ringList := service.NewRingList(10)
	assert.NotNil(t, ringList)
	assert.Equal(t, 0, ringList.Len())
	assert.False(t, ringList.Contains(""))
}

func TestAddAndContains(t *testing.T) {
	ringList := service.NewRingList(4)
	require.NotNil(t, ringList)

	ringList.Add("one")
	ringList.Add("two")
	ringList.Add("three")
	ringList.Add("four")
	assert.True(t, ringList.Contains("one"))
	assert.True(t, ringList.Contains("two"))
	assert.True(t, ringList.Contains("three"))
	assert.True(t, ringList.Contains("four"))
	assert.Equal(t, 4, ringList.Len())

	ringList.Add("five")
	ringList.Add("six")

	// one and two should be pushed out by five and six
	assert.False(t, ringList.Contains("one"))
	assert.False(t, ringList.Contains("two"))

	assert.True(t, ringList.Contains("three"))
	assert.True(t, ringList.Contains("four"))
	assert.True(t, ringList.Contains("five"))
	assert.True(t, ringList.Contains("six"))
	assert.Equal(t, 4, ringList.Len())
}

func TestAddIfAbsent(t *testing.T) {
	ringList := service.NewRingList(2)
	assert.True(t, ringList.AddIfAbsent("etc/passwd:abc"))
	assert.False(t, ringList.AddIfAbsent("etc/passwd:abc"))
	assert.False(t, ringList.AddIfAbsent(""))
	assert.True(t, ringList.AddIfAbsent("etc/shadow:def"))
	assert.True(t, ringList.AddIfAbsent("etc/hosts:123"))

	// Capacity two: the first key has been pushed out.
	assert.True(t, ringList.AddIfAbsent("etc/passwd:abc"))
}

func TestAddIfAbsentConcurrent(t *testing.T) {
	ringList := service.NewRingList(8)
	var wg sync.WaitGroup
	var mutex sync.Mutex
	added := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ringList.AddIfAbsent("same") {
				mutex.Lock()
				added++
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, added)
}

func TestDel(t *testing.T) {
	ringList := service.NewRingList(4)
	ringList.Add("one")
	ringList.Add("two")
	ringList.Add("three")
	ringList.Add("four")

	ringList.Del("one")
	ringList.Del("two")
	ringList.Del("three")
	ringList.Del("four")
	assert.False(t, ringList.Contains("one"))
	assert.False(t, ringList.Contains("two"))
	assert.False(t, ringList.Contains("three"))
	assert.False(t, ringList.Contains("four"))
	assert.Equal(t, 0, ringList.Len())
}
