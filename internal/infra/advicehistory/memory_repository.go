package advicehistory

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
)

const defaultCapacity = 62

// MemoryRepository keeps the most recent advisory per day in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	capacity int
	byDay    map[string]washadvisor.HistoryRecord
}

// NewMemoryRepository constructs a repo holding at most capacity days.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryRepository{
		capacity: capacity,
		byDay:    make(map[string]washadvisor.HistoryRecord),
	}
}

// Record implements washadvisor.HistoryRepository. A later record for the
// same day replaces the earlier one.
func (r *MemoryRepository) Record(_ context.Context, record washadvisor.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byDay[record.Date] = record
	if len(r.byDay) <= r.capacity {
		return nil
	}
	oldest := ""
	for day := range r.byDay {
		if oldest == "" || day < oldest {
			oldest = day
		}
	}
	delete(r.byDay, oldest)
	return nil
}

// Recent implements washadvisor.HistoryRepository, newest day first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]washadvisor.HistoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]washadvisor.HistoryRecord, 0, len(r.byDay))
	for _, record := range r.byDay {
		items = append(items, record)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Date > items[j].Date
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

var _ washadvisor.HistoryRepository = (*MemoryRepository)(nil)
