// Package datamanager declares the collaborators that execute highload block operations.
package datamanager

import (
	"context"
	"errors"
	"strings"

	"github.com/hlblock/hlorm/clause"
)

// ErrRecordNotFound returned in results of writes addressed to a missing row
var ErrRecordNotFound = errors.New("record not found")

// Manager executes list, count and write operations of one highload block table.
// Column names reaching a manager are already normalized, eg: UF_TITLE.
type Manager interface {
	GetList(ctx context.Context, params clause.Parameters) (Rows, error)
	GetCount(ctx context.Context, filter clause.Filter) (int64, error)
	Add(ctx context.Context, values map[string]interface{}) *Result
	// Update a primary key in values that differs from primary moves the row, the result id is the new key
	Update(ctx context.Context, primary interface{}, values map[string]interface{}) *Result
	Delete(ctx context.Context, primary interface{}) *Result
}

// FileLoader persists uploaded files and lists file records, rows carry ID, SUBDIR and FILE_NAME
type FileLoader interface {
	SaveFile(ctx context.Context, file interface{}, subdir string) (interface{}, error)
	GetList(ctx context.Context, columns []string, filter clause.Filter) (Rows, error)
}

// Rows host row iterator
type Rows interface {
	Next() bool
	Row() map[string]interface{}
	Err() error
	Close() error
}

// Result outcome of a write operation
type Result struct {
	ID            interface{}
	ErrorMessages []string
}

// Success successful result with the affected id
func Success(id interface{}) *Result {
	return &Result{ID: id}
}

// Failure failed result with error messages
func Failure(messages ...string) *Result {
	if len(messages) == 0 {
		messages = []string{"unknown error"}
	}
	return &Result{ErrorMessages: messages}
}

// FailureFromError failed result carrying the error text
func FailureFromError(err error) *Result {
	return Failure(err.Error())
}

// IsSuccess whether the write succeeded
func (r *Result) IsSuccess() bool {
	return r != nil && len(r.ErrorMessages) == 0
}

// Error join error messages
func (r *Result) Error() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.ErrorMessages, "; ")
}

// SliceRows rows backed by a slice
type SliceRows struct {
	rows []map[string]interface{}
	idx  int
	err  error
}

// NewRows build rows from host rows
func NewRows(rows ...map[string]interface{}) *SliceRows {
	return &SliceRows{rows: rows, idx: -1}
}

// NewErrorRows rows failing with err after the given rows
func NewErrorRows(err error, rows ...map[string]interface{}) *SliceRows {
	return &SliceRows{rows: rows, idx: -1, err: err}
}

// Next advance to the next row
func (r *SliceRows) Next() bool {
	if r.idx+1 >= len(r.rows) {
		r.idx = len(r.rows)
		return false
	}
	r.idx++
	return true
}

// Row current row
func (r *SliceRows) Row() map[string]interface{} {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return nil
	}
	return r.rows[r.idx]
}

// Err iteration error, reported once every row was read
func (r *SliceRows) Err() error {
	if r.idx >= len(r.rows) {
		return r.err
	}
	return nil
}

// Close release rows
func (r *SliceRows) Close() error {
	r.idx = len(r.rows)
	return nil
}

// Collect read every row and close rows
func Collect(rows Rows) ([]map[string]interface{}, error) {
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		results = append(results, rows.Row())
	}
	return results, rows.Err()
}

// Resolver resolves the manager of a table
type Resolver func(table string) (Manager, error)

// Static resolver over a fixed set of managers keyed by table
func Static(managers map[string]Manager) Resolver {
	return func(table string) (Manager, error) {
		if manager, ok := managers[table]; ok {
			return manager, nil
		}
		return nil, errors.New("no data manager registered for table " + table)
	}
}
