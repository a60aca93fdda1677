// internal/adapters/out/memory/store_mem.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	common "invoicer/internal/domain/common"
	"invoicer/internal/domain/docstore"
)

// Store is an in-process docstore.Store. It backs tests and migration dry runs.
type Store struct {
	mu   sync.Mutex
	cols map[string]*collection

	// FailPut, when set, is consulted before every Put.
	FailPut func(collection, id string) error
}

type collection struct {
	order []string // insertion order; re-put keeps the original position
	docs  map[string]map[string]any
}

func NewStore() *Store {
	return &Store{cols: map[string]*collection{}}
}

var _ docstore.Store = (*Store)(nil)

func (s *Store) colLocked(name string) *collection {
	c, ok := s.cols[name]
	if !ok {
		c = &collection{docs: map[string]map[string]any{}}
		s.cols[name] = c
	}
	return c
}

func (s *Store) Put(ctx context.Context, col, id string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(col) == "" {
		return "", fmt.Errorf("%w: empty collection", docstore.ErrInvalidArgument)
	}
	if s.FailPut != nil {
		if err := s.FailPut(col, id); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.colLocked(col)
	id = strings.TrimSpace(id)
	if id == "" {
		id = newID()
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = cloneMap(data)
	return id, nil
}

func (s *Store) Get(ctx context.Context, col, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cols[col]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	data, ok := c.docs[strings.TrimSpace(id)]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Data: cloneMap(data)}, nil
}

func (s *Store) List(ctx context.Context, col string, q docstore.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range q.Filters {
		if !docstore.ValidOp(f.Op) {
			return nil, fmt.Errorf("%w: operator %q", docstore.ErrInvalidArgument, f.Op)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []docstore.Document{}
	c, ok := s.cols[col]
	if !ok {
		return out, nil
	}

	for _, id := range c.order {
		data := c.docs[id]
		if matches(data, q.Filters) {
			out = append(out, docstore.Document{ID: id, Data: cloneMap(data)})
		}
	}

	if field := strings.TrimSpace(q.OrderBy); field != "" {
		// Firestore drops documents that lack the order field.
		kept := out[:0]
		for _, d := range out {
			if _, ok := d.Data[field]; ok {
				kept = append(kept, d)
			}
		}
		out = kept
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i].Data[field], out[j].Data[field])
			if q.Order == common.SortDesc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, col, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cols[col]
	if !ok {
		return docstore.ErrNotFound
	}
	data, ok := c.docs[strings.TrimSpace(id)]
	if !ok {
		return docstore.ErrNotFound
	}
	for k, v := range fields {
		data[k] = cloneValue(v)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, col, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	c, ok := s.cols[col]
	if !ok {
		return docstore.ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return docstore.ErrNotFound
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Count returns the number of documents in col.
func (s *Store) Count(col string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cols[col]; ok {
		return len(c.docs)
	}
	return 0
}

// Collections returns the non-empty collection names, sorted.
func (s *Store) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.cols))
	for name, c := range s.cols {
		if len(c.docs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// =======================
// Helpers
// =======================

// newID mimics Firestore's 20-character auto ids.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

func matches(data map[string]any, filters []docstore.Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok {
			return false
		}
		c := compare(v, f.Value)
		switch f.Op {
		case docstore.OpEqual:
			if c != 0 {
				return false
			}
		case docstore.OpLessThan:
			if c >= 0 {
				return false
			}
		case docstore.OpLessOrEqual:
			if c > 0 {
				return false
			}
		case docstore.OpGreaterThan:
			if c <= 0 {
				return false
			}
		case docstore.OpGreaterOrEqual:
			if c < 0 {
				return false
			}
		}
	}
	return true
}

// compare orders values the way Firestore does for the types we store:
// numbers < strings < timestamps; within a type by natural order.
func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 1:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case 2:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 3:
		return strings.Compare(a.(string), b.(string))
	case 4:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int32, int64, float32, float64:
		return 2
	case string:
		return 3
	case time.Time:
		return 4
	}
	return 5
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	}
	return v
}
