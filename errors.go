package hlorm

import (
	"errors"
	"fmt"

	"github.com/hlblock/hlorm/logger"
)

var (
	// ErrModelNotFound model not found error
	ErrModelNotFound = logger.ErrRecordNotFound
	// ErrInvalidArgument malformed operator and value combination, logic or key type
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMissingTable model definition without table
	ErrMissingTable = errors.New("model must have a table")
	// ErrMissingKeyName model without primary key name
	ErrMissingKeyName = errors.New("no primary key defined on model")
	// ErrNotRelation unknown relation name
	ErrNotRelation = errors.New("relationship must be declared on the model")
	// ErrMissingDataManager no data manager resolver configured
	ErrMissingDataManager = errors.New("data manager is not configured")
	// ErrMissingFileLoader no file loader configured
	ErrMissingFileLoader = errors.New("file loader is not configured")
	// ErrPersistence data manager refused a write
	ErrPersistence = errors.New("persistence failed")
	// ErrPreloadCycle default preloads of definitions leading back to one of them
	ErrPreloadCycle = errors.New("preload cycle")
)

// ModelNotFoundError returned by the OrFail finishers
type ModelNotFoundError struct {
	Model string
	IDs   []interface{}
}

func (e *ModelNotFoundError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("no query results for model [%s]", e.Model)
	}
	return fmt.Sprintf("no query results for model [%s] %v", e.Model, e.IDs)
}

// Unwrap matches ErrModelNotFound
func (e *ModelNotFoundError) Unwrap() error {
	return ErrModelNotFound
}
