// Package endpoint picks the healthiest backend replica for each request.
// Replicas are held on a max-heap scored by success rate, observed latency
// and time since last use; callers report each request's outcome back so
// a flapping replica sinks and a recovered one resurfaces.
package endpoint

import (
	"fmt"
	"sync"
	"time"
)

type Endpoint struct {
	BaseURL       string
	LatencyMillis float64
	SuccessCount  int
	TryCount      int
}

type Manager struct {
	mu       sync.Mutex
	heap     *Heap
	byURL    map[string]*Element
	fallback string
}

type ManagerOptions struct {
	BaseURLs []string
	Algo     ScoreAlgo
}

func New(options *ManagerOptions) (*Manager, error) {
	if len(options.BaseURLs) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}
	algo := options.Algo
	if algo == nil {
		algo = ScoreAlgoNaive{}
	}

	byURL := make(map[string]*Element, len(options.BaseURLs))
	elements := make([]*Element, 0, len(options.BaseURLs))
	for _, url := range options.BaseURLs {
		elem := &Element{Endpoint: &Endpoint{BaseURL: url}}
		byURL[url] = elem
		elements = append(elements, elem)
	}

	return &Manager{
		heap:     NewHeap(elements, algo),
		byURL:    byURL,
		fallback: options.BaseURLs[0],
	}, nil
}

// Pick returns the best base URL and marks it used so consecutive picks
// spread across equally-healthy replicas.
func (m *Manager) Pick() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	best := m.heap.Peek()
	if best == nil {
		return m.fallback
	}
	best.LastUsedAt = time.Now()
	m.heap.Fix(best)
	return best.Endpoint.BaseURL
}

// Report feeds one request outcome back into the replica's score. Latency
// is kept as a moving average so a single slow response doesn't bury an
// otherwise healthy endpoint.
func (m *Manager) Report(baseURL string, latency time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, found := m.byURL[baseURL]
	if !found {
		return
	}
	ep := elem.Endpoint
	ep.TryCount++
	if ok {
		ep.SuccessCount++
	}
	millis := float64(latency.Milliseconds())
	if ep.LatencyMillis == 0 {
		ep.LatencyMillis = millis
	} else {
		ep.LatencyMillis = 0.8*ep.LatencyMillis + 0.2*millis
	}
	m.heap.Fix(elem)
}

// Size returns the number of managed replicas.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heap.Len()
}
