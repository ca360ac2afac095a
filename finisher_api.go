package hlorm

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/logger"
	"github.com/hlblock/hlorm/schema"
	"github.com/hlblock/hlorm/utils"
)

// Get fetch models matching the builder, columns override selected columns for this call only
func (b *Builder) Get(columns ...string) (*Collection, error) {
	if !b.ready() {
		return nil, b.Error
	}

	params := b.Parameters()
	if len(columns) > 0 {
		params = params.Clone()
		params.Select = b.model.Schema.Namer.NormalizeKeys(columns)
	}

	rows, err := b.getList(params)
	if err != nil {
		return nil, err
	}

	models := make([]*Model, 0, len(rows))
	for _, row := range rows {
		models = append(models, b.model.newFromBuilder(row))
	}

	if len(models) > 0 {
		if err := b.eagerLoadRelations(models); err != nil {
			return nil, err
		}
		if err := b.eagerLoadFiles(models); err != nil {
			return nil, err
		}
	}
	return NewCollection(models...), nil
}

// First first model matching the builder, nil when none
func (b *Builder) First(columns ...string) (*Model, error) {
	results, err := b.Limit(1).Get(columns...)
	if err != nil {
		return nil, err
	}
	return results.First(), nil
}

// FirstOrFail first model matching the builder, *ModelNotFoundError when none
func (b *Builder) FirstOrFail(columns ...string) (*Model, error) {
	m, err := b.First(columns...)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &ModelNotFoundError{Model: b.modelName()}
	}
	return m, nil
}

// Find model by primary key, nil when absent. A slice of keys finds the first of FindMany
func (b *Builder) Find(id interface{}, columns ...string) (*Model, error) {
	if isList(id) {
		results, err := b.FindMany(utils.ToSlice(id), columns...)
		if err != nil {
			return nil, err
		}
		return results.First(), nil
	}

	if b.model == nil {
		return nil, b.Error
	}
	return b.Where(b.model.GetKeyName(), id).First(columns...)
}

// FindMany models by primary keys, empty keys fetch nothing
func (b *Builder) FindMany(ids []interface{}, columns ...string) (*Collection, error) {
	if b.Error != nil {
		return nil, b.Error
	}
	if len(ids) == 0 {
		return NewCollection(), nil
	}
	return b.Where(b.model.GetKeyName(), ids).Get(columns...)
}

// FindOrFail model by primary key, *ModelNotFoundError when absent
func (b *Builder) FindOrFail(id interface{}, columns ...string) (*Model, error) {
	m, err := b.Find(id, columns...)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &ModelNotFoundError{Model: b.modelName(), IDs: utils.ToSlice(id)}
	}
	return m, nil
}

// Count count rows matching the filter
func (b *Builder) Count() (int64, error) {
	if !b.ready() {
		return 0, b.Error
	}
	return b.getCount(b.Parameters().Filter)
}

// Exists whether any row matches the filter
func (b *Builder) Exists() (bool, error) {
	count, err := b.Count()
	return count > 0, err
}

// Chunk fetch models page by page, fc returning false stops the iteration and Chunk returns false
func (b *Builder) Chunk(count int, fc func(results *Collection) bool) (bool, error) {
	for page := 1; ; page++ {
		results, err := b.ForPage(page, count).Get()
		if err != nil {
			return false, err
		}

		length := results.Len()
		if length == 0 {
			break
		}

		if !fc(results) {
			return false, nil
		}

		if length < b.limit {
			break
		}
	}
	return true, nil
}

// Insert add a row, returns the new id. A refused write returns false, messages are kept in Errors
func (b *Builder) Insert(values map[string]interface{}) (interface{}, bool) {
	if len(values) == 0 {
		return nil, true
	}
	if !b.ready() {
		return nil, false
	}

	values = b.normalizeValues(values)
	result := b.write(logger.OpAdd, nil, values, func() *datamanager.Result {
		return b.manager.Add(b.Context(), values)
	})
	if !result.IsSuccess() {
		return nil, false
	}
	return result.ID, true
}

// Update update the row addressed by SetModelPrimary, the update timestamp is added when missing
func (b *Builder) Update(values map[string]interface{}) bool {
	if !b.ready() {
		return false
	}
	if b.modelPrimary == nil {
		b.AddError(fmt.Errorf("%w: update needs a primary key, see SetModelPrimary", ErrInvalidArgument))
		return false
	}

	values = b.normalizeValues(values)
	if b.model.Schema.Timestamps {
		if _, ok := values[b.model.Schema.UpdatedAt]; !ok {
			updatedAt, err := schema.FromDateTime(b.now(), b.model.Schema.DateFormat)
			if err != nil {
				b.AddError(err)
				return false
			}
			values[b.model.Schema.UpdatedAt] = updatedAt
		}
	}

	primary := b.modelPrimary
	result := b.write(logger.OpUpdate, primary, values, func() *datamanager.Result {
		return b.manager.Update(b.Context(), primary, values)
	})
	return result.IsSuccess()
}

// Delete delete the row of the primary key, the one set with SetModelPrimary by default
func (b *Builder) Delete(primary ...interface{}) bool {
	if !b.ready() {
		return false
	}

	id := b.modelPrimary
	if len(primary) > 0 {
		id = primary[0]
	}
	if id == nil {
		b.AddError(fmt.Errorf("%w: delete needs a primary key", ErrInvalidArgument))
		return false
	}

	result := b.write(logger.OpDelete, id, nil, func() *datamanager.Result {
		return b.manager.Delete(b.Context(), id)
	})
	return result.IsSuccess()
}

// CreateFile store a file value of a file field and return its id, ids and empty values are returned as is
func (b *Builder) CreateFile(file interface{}) (interface{}, error) {
	if file == nil || file == "" || utils.IsNumeric(file) {
		return file, nil
	}
	if b.fileLoader == nil {
		return nil, ErrMissingFileLoader
	}

	begin := time.Now()
	id, err := b.fileLoader.SaveFile(b.Context(), file, "")
	b.logger().Trace(b.Context(), begin, func() (logger.Operation, int64) {
		return logger.Operation{Name: logger.OpSaveFile, Table: b.table(), ID: id}, 1
	}, err)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (b *Builder) now() time.Time {
	if b.db != nil && b.db.NowFunc != nil {
		return b.db.NowFunc()
	}
	return time.Now()
}

func (b *Builder) modelName() string {
	if b.model == nil || b.model.Schema == nil {
		return ""
	}
	return b.model.Schema.Name
}

func isList(value interface{}) bool {
	if value == nil {
		return false
	}
	rv := reflect.ValueOf(value)
	return (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8
}

// IsNotFound whether err reports a missing model
func IsNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}
