package endpoint

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManagerInitialization(t *testing.T) {
	manager, err := New(&ManagerOptions{BaseURLs: []string{"http://a:8080", "http://b:8080"}})
	assert.NoError(t, err)
	assert.NotNil(t, manager)
	assert.Equal(t, 2, manager.Size())
}

func TestManagerEmptyList(t *testing.T) {
	manager, err := New(&ManagerOptions{BaseURLs: []string{}})
	assert.Error(t, err)
	assert.Nil(t, manager)
}

func TestManagerPickSpreadsLoad(t *testing.T) {
	manager, err := New(&ManagerOptions{
		BaseURLs: []string{"http://a:8080", "http://b:8080"},
		Algo:     &mockAlgo{},
	})
	assert.NoError(t, err)

	first := manager.Pick()
	second := manager.Pick()
	assert.NotEqual(t, first, second, "consecutive picks should spread across equally-healthy replicas")
}

func TestManagerReportSinksFailingReplica(t *testing.T) {
	manager, err := New(&ManagerOptions{BaseURLs: []string{"http://a:8080", "http://b:8080"}})
	assert.NoError(t, err)

	bad := "http://a:8080"
	good := "http://b:8080"
	for i := 0; i < 10; i++ {
		manager.Report(bad, 2*time.Second, false)
		manager.Report(good, 50*time.Millisecond, true)
	}

	picks := map[string]int{}
	for i := 0; i < 10; i++ {
		picks[manager.Pick()]++
	}
	assert.Greater(t, picks[good], picks[bad], "healthy replica should be picked more often")
}

func TestManagerReportUnknownURL(t *testing.T) {
	manager, err := New(&ManagerOptions{BaseURLs: []string{"http://a:8080"}})
	assert.NoError(t, err)

	// Must not panic or change size
	manager.Report("http://unknown:8080", time.Second, true)
	assert.Equal(t, 1, manager.Size())
}

func TestManagerLatencyMovingAverage(t *testing.T) {
	manager, err := New(&ManagerOptions{BaseURLs: []string{"http://a:8080"}})
	assert.NoError(t, err)

	manager.Report("http://a:8080", 100*time.Millisecond, true)
	ep := manager.byURL["http://a:8080"].Endpoint
	assert.Equal(t, 100.0, ep.LatencyMillis)

	// One slow response moves the average, it doesn't replace it
	manager.Report("http://a:8080", 1100*time.Millisecond, true)
	assert.Equal(t, 300.0, ep.LatencyMillis)
	assert.Equal(t, 2, ep.TryCount)
	assert.Equal(t, 2, ep.SuccessCount)
}

func TestManagerThreadSafety(t *testing.T) {
	t.Parallel()
	manager, err := New(&ManagerOptions{BaseURLs: []string{"http://a:8080", "http://b:8080", "http://c:8080"}})
	assert.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				url := manager.Pick()
				manager.Report(url, time.Duration(j)*time.Millisecond, j%5 != 0)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, manager.Size())
}
