package api

import (
	"net/http"
	"sync"
	"time"
)

// StatusObserver remembers the last refresh that produced new articles.
type StatusObserver struct {
	mu     sync.RWMutex
	status StatusResponse
	now    func() time.Time
}

type StatusResponse struct {
	LastRefresh   *time.Time `json:"lastRefresh,omitempty"`
	UserTriggered bool       `json:"userTriggered"`
	Refreshes     int64      `json:"refreshes"`
}

func (s StatusResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewStatusObserver() *StatusObserver {
	return &StatusObserver{now: time.Now}
}

func (o *StatusObserver) Refreshed(userTriggered bool) {
	now := o.now().UTC()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.status.LastRefresh = &now
	o.status.UserTriggered = userTriggered
	o.status.Refreshes++
}

func (o *StatusObserver) Status() StatusResponse {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.status
}
