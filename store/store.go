package store

import (
	"context"
	"sort"
	"sync"

	"videolens/types"
)

// Store keeps analysis job status and terminal results for the polling
// endpoints.
type Store interface {
	SetStatus(ctx context.Context, id string, status types.AnalysisStatus) error
	GetStatus(ctx context.Context, id string) (types.AnalysisStatus, bool, error)
	SaveResult(ctx context.Context, result *types.AnalysisResult) error
	GetResult(ctx context.Context, id string) (*types.AnalysisResult, bool, error)
	ListResults(ctx context.Context) ([]*types.AnalysisResult, error)
	DeleteResult(ctx context.Context, id string) error
}

// Memory is the default Store: plain maps, lost on restart.
type Memory struct {
	mu      sync.RWMutex
	status  map[string]types.AnalysisStatus
	results map[string]*types.AnalysisResult
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		status:  make(map[string]types.AnalysisStatus),
		results: make(map[string]*types.AnalysisResult),
	}
}

func (m *Memory) SetStatus(_ context.Context, id string, status types.AnalysisStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = status
	return nil
}

func (m *Memory) GetStatus(_ context.Context, id string) (types.AnalysisStatus, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.status[id]
	return s, ok, nil
}

func (m *Memory) SaveResult(_ context.Context, result *types.AnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *result
	m.results[result.ID] = &cp
	m.status[result.ID] = result.Status
	return nil
}

func (m *Memory) GetResult(_ context.Context, id string) (*types.AnalysisResult, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

func (m *Memory) ListResults(_ context.Context) ([]*types.AnalysisResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.AnalysisResult, 0, len(m.results))
	for _, r := range m.results {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (m *Memory) DeleteResult(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.results, id)
	delete(m.status, id)
	return nil
}
