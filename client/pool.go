package client

import (
	"net/http"
	"sync"
	"time"
)

// Pool caches one tuned *http.Client per backend replica so keep-alive
// connections are reused across requests instead of being reopened for
// every call.
type Pool struct {
	mu      sync.Mutex
	clients map[string]*http.Client
	timeout time.Duration
}

func NewPool(timeout time.Duration) *Pool {
	return &Pool{
		clients: make(map[string]*http.Client),
		timeout: timeout,
	}
}

// For returns the client bound to one base URL, creating it on first use.
func (p *Pool) For(baseURL string) *http.Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[baseURL]; ok {
		return c
	}
	c := &http.Client{
		Transport: &http.Transport{
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: p.timeout,
	}
	p.clients[baseURL] = c
	return c
}
