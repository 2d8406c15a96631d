package encoder

import (
	"sync"
	"time"

	"videolens/types"
)

// Registry tracks encode progress per file ID for the polling endpoint.
type Registry struct {
	mu       sync.RWMutex
	progress map[string]types.Progress
}

// NewRegistry creates an empty progress registry.
func NewRegistry() *Registry {
	return &Registry{progress: make(map[string]types.Progress)}
}

// Set records the latest progress tick for a file.
func (r *Registry) Set(fileID string, percentage int, stage, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[fileID] = types.Progress{Percentage: percentage, Stage: stage, Message: message}
}

// Get returns the current progress for a file, if any.
func (r *Registry) Get(fileID string) (types.Progress, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.progress[fileID]
	return p, ok
}

// Forget drops the progress entry for a file.
func (r *Registry) Forget(fileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.progress, fileID)
}

// ForgetAfter drops the entry once pollers have had a chance to observe
// the terminal tick.
func (r *Registry) ForgetAfter(fileID string, d time.Duration) {
	time.AfterFunc(d, func() { r.Forget(fileID) })
}
