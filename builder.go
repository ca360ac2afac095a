package hlorm

import (
	"context"
	"fmt"
	"time"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/logger"
)

// Constraint customizes the query of an eagerly loaded relation
type Constraint func(*Builder)

// Builder query builder of a model, chainable methods change the builder in place and return it,
// finishers execute it through the data manager of the model. A builder is not safe for concurrent use.
type Builder struct {
	// Error programmer and collaborator errors, surfaced by finishers
	Error error

	db           *DB
	model        *Model
	manager      DataManager
	fileLoader   FileLoader
	ctx          context.Context
	selects      []string
	filter       clause.Filter
	group        []string
	order        []clause.OrderByColumn
	limit        int
	offset       int
	eagerLoad    []eagerLoad
	preloading   []*Definition
	files        []string
	errors       []string
	modelPrimary interface{}
	parameters   *clause.Parameters
}

type eagerLoad struct {
	name       string
	constraint Constraint
	// preset registered by a Definition.Preload, not requested by With
	preset bool
}

// AddError add error to the builder
func (b *Builder) AddError(err error) error {
	if err == nil {
		return nil
	}
	if b.Error == nil {
		b.Error = err
	} else {
		b.Error = fmt.Errorf("%v; %w", b.Error, err)
	}
	return err
}

// Errors messages of writes refused by the data manager
func (b *Builder) Errors() []string {
	return b.errors
}

// Model model the builder queries
func (b *Builder) Model() *Model {
	return b.model
}

// Context context of data manager calls
func (b *Builder) Context() context.Context {
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}

// Parameters list parameters compiled from the builder, cached until the next change
func (b *Builder) Parameters() clause.Parameters {
	if b.parameters == nil {
		params := clause.Parameters{
			Select: b.selects,
			Filter: b.filter,
			Group:  b.group,
			Order:  b.order,
			Limit:  b.limit,
			Offset: b.offset,
		}.Clone()
		b.parameters = &params
	}
	return *b.parameters
}

// Filter compiled filter
func (b *Builder) Filter() clause.Filter {
	return b.filter.Clone()
}

// changed drop cached parameters, called by every chainable method
func (b *Builder) changed() *Builder {
	b.parameters = nil
	return b
}

func (b *Builder) table() string {
	if b.model == nil || b.model.Schema == nil {
		return ""
	}
	return b.model.Schema.Manager
}

func (b *Builder) normalizeKey(key string) string {
	return b.model.NormalizeKey(key)
}

func (b *Builder) normalizeValues(values map[string]interface{}) map[string]interface{} {
	results := make(map[string]interface{}, len(values))
	for key, value := range values {
		results[b.normalizeKey(key)] = value
	}
	return results
}

func (b *Builder) logger() logger.Interface {
	if b.db == nil || b.db.Logger == nil {
		return logger.Discard
	}
	return b.db.Logger
}

func (b *Builder) ready() bool {
	if b.Error != nil {
		return false
	}
	if b.model == nil || b.manager == nil {
		b.AddError(ErrMissingDataManager)
		return false
	}
	return true
}

func (b *Builder) getList(params clause.Parameters) ([]map[string]interface{}, error) {
	begin := time.Now()
	rows, err := b.manager.GetList(b.Context(), params)

	var results []map[string]interface{}
	if err == nil {
		results, err = datamanager.Collect(rows)
	}

	b.logger().Trace(b.Context(), begin, func() (logger.Operation, int64) {
		return logger.Operation{Name: logger.OpGetList, Table: b.table(), Params: params}, int64(len(results))
	}, err)
	return results, err
}

func (b *Builder) getCount(filter clause.Filter) (int64, error) {
	begin := time.Now()
	count, err := b.manager.GetCount(b.Context(), filter)

	b.logger().Trace(b.Context(), begin, func() (logger.Operation, int64) {
		return logger.Operation{Name: logger.OpGetCount, Table: b.table(), Params: clause.Parameters{Filter: filter}}, count
	}, err)
	return count, err
}

func (b *Builder) write(operation string, primary interface{}, values map[string]interface{}, fc func() *datamanager.Result) *datamanager.Result {
	begin := time.Now()
	result := fc()
	if result == nil {
		result = datamanager.Failure()
	}

	var err error
	if !result.IsSuccess() {
		err = fmt.Errorf("%w: %s", ErrPersistence, result.Error())
		b.errors = append(b.errors, result.ErrorMessages...)
	}

	b.logger().Trace(b.Context(), begin, func() (logger.Operation, int64) {
		op := logger.Operation{Name: operation, Table: b.table(), ID: primary, Values: values}
		if err != nil {
			return op, 0
		}
		return op, 1
	}, err)
	return result
}
