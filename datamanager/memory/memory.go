// Package memory provides a mutex guarded in-memory data manager, rows are matched with clause filters.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cast"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/utils"
)

// PrimaryKey column holding row ids
const PrimaryKey = "ID"

// Stats count of calls per operation
type Stats struct {
	GetList  int
	GetCount int
	Add      int
	Update   int
	Delete   int
}

// Store in-memory table
type Store struct {
	mu       sync.RWMutex
	table    string
	rows     []map[string]interface{}
	nextID   int64
	stats    Stats
	failures []string
}

// New create store filled with rows, rows without ID get the next id
func New(table string, rows ...map[string]interface{}) *Store {
	store := &Store{table: table, nextID: 1}
	for _, row := range rows {
		store.insert(row)
	}
	return store
}

// Table table name of the store
func (s *Store) Table() string {
	return s.table
}

// Stats calls made so far
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Rows snapshot of stored rows
func (s *Store) Rows() []map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]map[string]interface{}, len(s.rows))
	for idx, row := range s.rows {
		rows[idx] = copyRow(row)
	}
	return rows
}

// FailWrites make every following write fail with messages, call without messages to reset
func (s *Store) FailWrites(messages ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = messages
}

// GetList rows matching the filter, ordered, grouped and paged as requested
func (s *Store) GetList(ctx context.Context, params clause.Parameters) (datamanager.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stats.GetList++
	matched := s.match(params.Filter)
	s.mu.Unlock()

	if len(params.Order) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, column := range params.Order {
				cmp := clause.Compare(matched[i][column.Column], matched[j][column.Column])
				if cmp == 0 {
					continue
				}
				if column.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if len(params.Group) > 0 {
		matched = group(matched, params.Group)
	}

	if params.Offset > 0 {
		if params.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[params.Offset:]
		}
	}

	if params.Limit > 0 && params.Limit < len(matched) {
		matched = matched[:params.Limit]
	}

	if len(params.Select) > 0 {
		for idx, row := range matched {
			projected := make(map[string]interface{}, len(params.Select))
			for _, column := range params.Select {
				projected[column] = row[column]
			}
			matched[idx] = projected
		}
	}

	return datamanager.NewRows(matched...), nil
}

// GetCount count rows matching the filter
func (s *Store) GetCount(ctx context.Context, filter clause.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.GetCount++
	return int64(len(s.match(filter))), nil
}

// Add insert row, returns the generated id
func (s *Store) Add(ctx context.Context, values map[string]interface{}) *datamanager.Result {
	if err := ctx.Err(); err != nil {
		return datamanager.FailureFromError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Add++
	if len(s.failures) > 0 {
		return datamanager.Failure(s.failures...)
	}
	return datamanager.Success(s.insert(values))
}

// Update merge values into the row with the primary key
func (s *Store) Update(ctx context.Context, primary interface{}, values map[string]interface{}) *datamanager.Result {
	if err := ctx.Err(); err != nil {
		return datamanager.FailureFromError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Update++
	if len(s.failures) > 0 {
		return datamanager.Failure(s.failures...)
	}

	idx := s.find(primary)
	if idx < 0 {
		return datamanager.Failure(fmt.Sprintf("%v: %s %v", datamanager.ErrRecordNotFound, s.table, primary))
	}
	if key, ok := values[PrimaryKey]; ok && !clause.LooseEqual(key, primary) {
		if s.find(key) >= 0 {
			return datamanager.Failure(fmt.Sprintf("memory: duplicated key %v in %s", key, s.table))
		}
		s.reserve(key)
	}
	for key, value := range values {
		if key != PrimaryKey || !clause.LooseEqual(value, primary) {
			s.rows[idx][key] = value
		}
	}
	return datamanager.Success(s.rows[idx][PrimaryKey])
}

// Delete remove the row with the primary key
func (s *Store) Delete(ctx context.Context, primary interface{}) *datamanager.Result {
	if err := ctx.Err(); err != nil {
		return datamanager.FailureFromError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Delete++
	if len(s.failures) > 0 {
		return datamanager.Failure(s.failures...)
	}

	idx := s.find(primary)
	if idx < 0 {
		return datamanager.Failure(fmt.Sprintf("%v: %s %v", datamanager.ErrRecordNotFound, s.table, primary))
	}
	id := s.rows[idx][PrimaryKey]
	s.rows = append(s.rows[:idx], s.rows[idx+1:]...)
	return datamanager.Success(id)
}

func (s *Store) insert(values map[string]interface{}) interface{} {
	row := copyRow(values)
	if id, ok := row[PrimaryKey]; ok && id != nil {
		s.reserve(id)
	} else {
		row[PrimaryKey] = s.nextID
		s.nextID++
	}
	s.rows = append(s.rows, row)
	return row[PrimaryKey]
}

// reserve keep generated ids above the numeric id
func (s *Store) reserve(id interface{}) {
	if n, err := cast.ToInt64E(id); err == nil && n >= s.nextID {
		s.nextID = n + 1
	}
}

func (s *Store) find(primary interface{}) int {
	for idx, row := range s.rows {
		if clause.LooseEqual(row[PrimaryKey], primary) {
			return idx
		}
	}
	return -1
}

func (s *Store) match(filter clause.Filter) []map[string]interface{} {
	var matched []map[string]interface{}
	for _, row := range s.rows {
		if filter.Match(row) {
			matched = append(matched, copyRow(row))
		}
	}
	return matched
}

func group(rows []map[string]interface{}, columns []string) []map[string]interface{} {
	var (
		seen    = map[string]bool{}
		grouped []map[string]interface{}
		values  = make([]interface{}, len(columns))
	)
	for _, row := range rows {
		for idx, column := range columns {
			values[idx] = row[column]
		}
		key := utils.ToStringKey(values...)
		if !seen[key] {
			seen[key] = true
			grouped = append(grouped, row)
		}
	}
	return grouped
}

func copyRow(row map[string]interface{}) map[string]interface{} {
	copied := make(map[string]interface{}, len(row))
	for key, value := range row {
		copied[key] = value
	}
	return copied
}

// Registry stores keyed by table, created on first use
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry create registry holding the stores
func NewRegistry(stores ...*Store) *Registry {
	registry := &Registry{stores: map[string]*Store{}}
	for _, store := range stores {
		registry.stores[store.table] = store
	}
	return registry
}

// Table store of the table
func (r *Registry) Table(table string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[table]
	if !ok {
		store = New(table)
		r.stores[table] = store
	}
	return store
}

// Resolve resolve the manager of a table, usable as a datamanager.Resolver
func (r *Registry) Resolve(table string) (datamanager.Manager, error) {
	return r.Table(table), nil
}
