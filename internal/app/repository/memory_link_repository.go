package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sifan077/tinylink/internal/app/model"
)

// MemoryLinkRepository is a process-local LinkRepository. Every operation
// runs under one mutex, which gives it the same atomicity as the SQL store.
type MemoryLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*model.Link
	nextID int64
	now    func() time.Time
}

// NewMemoryLinkRepository creates an empty in-memory repository.
func NewMemoryLinkRepository() *MemoryLinkRepository {
	return &MemoryLinkRepository{
		links: make(map[string]*model.Link),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryLinkRepository) List(ctx context.Context) ([]model.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	r.mu.RLock()
	result := make([]model.Link, 0, len(r.links))
	for _, link := range r.links {
		result = append(result, clone(link))
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *MemoryLinkRepository) ListCodes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.links))
	for code := range r.links {
		codes = append(codes, code)
	}
	return codes, nil
}

func (r *MemoryLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[code]
	if !ok {
		return nil, ErrLinkNotFound
	}
	c := clone(link)
	return &c, nil
}

func (r *MemoryLinkRepository) Exists(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.links[code]
	return ok, nil
}

func (r *MemoryLinkRepository) Insert(ctx context.Context, code, targetURL string) (*model.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[code]; ok {
		return nil, ErrDuplicateCode
	}

	r.nextID++
	link := &model.Link{
		ID:        r.nextID,
		Code:      code,
		TargetURL: targetURL,
		CreatedAt: r.now(),
	}
	r.links[code] = link

	c := clone(link)
	return &c, nil
}

func (r *MemoryLinkRepository) Delete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[code]; !ok {
		return ErrLinkNotFound
	}
	delete(r.links, code)
	return nil
}

func (r *MemoryLinkRepository) IncrementClicks(ctx context.Context, code string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[code]
	if !ok {
		return ErrLinkNotFound
	}
	link.TotalClicks++
	clicked := at
	link.LastClicked = &clicked
	return nil
}

func clone(link *model.Link) model.Link {
	c := *link
	if link.LastClicked != nil {
		t := *link.LastClicked
		c.LastClicked = &t
	}
	return c
}
