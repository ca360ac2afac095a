// Package sqlstore provides a data manager executing highload block operations on database/sql tables.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/logger"
)

// DefaultPrimaryKey column holding row ids
const DefaultPrimaryKey = "ID"

// ConnPool db conns pool interface, satisfied by *sql.DB and *sql.Tx
type ConnPool interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Config sql store config
type Config struct {
	Dialect Dialect
	// PrimaryKey column holding row ids, ID by default
	PrimaryKey string
	// Logger traces executed statements, silent by default
	Logger logger.Interface
}

// Store data manager of one table
type Store struct {
	*Config
	pool  ConnPool
	table string
}

// New store of the table
func New(pool ConnPool, table string, config *Config) *Store {
	if config == nil {
		config = &Config{}
	}
	if config.Dialect == nil {
		config.Dialect = &commonDialect{}
	}
	if config.PrimaryKey == "" {
		config.PrimaryKey = DefaultPrimaryKey
	}
	if config.Logger == nil {
		config.Logger = logger.Discard
	}
	return &Store{Config: config, pool: pool, table: table}
}

// Open open a database with a registered driver and pick the dialect of the driver
func Open(driverName, dsn string) (*sql.DB, Dialect, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, NewDialect(driverName), nil
}

// Resolver resolver creating one store per table, stores are cached
func Resolver(pool ConnPool, config *Config) datamanager.Resolver {
	var stores sync.Map
	return func(table string) (datamanager.Manager, error) {
		if table == "" {
			return nil, fmt.Errorf("sqlstore: empty table name")
		}
		if store, ok := stores.Load(table); ok {
			return store.(*Store), nil
		}
		store, _ := stores.LoadOrStore(table, New(pool, table, config))
		return store.(*Store), nil
	}
}

// Table table name of the store
func (s *Store) Table() string {
	return s.table
}

// GetList rows matching the parameters
func (s *Store) GetList(ctx context.Context, params clause.Parameters) (datamanager.Rows, error) {
	stmt := NewStatement(s.Dialect)
	stmt.WriteString("SELECT ")
	clause.Select{Columns: params.Select}.Build(stmt)
	stmt.WriteString(" FROM ")
	stmt.WriteQuoted(s.table)
	if params.Filter.Len() > 0 {
		stmt.AddClause(clause.Where{Filter: params.Filter})
	}
	if len(params.Group) > 0 {
		stmt.AddClause(clause.GroupBy{Columns: params.Group})
	}
	if len(params.Order) > 0 {
		stmt.AddClause(clause.OrderBy{Columns: params.Order})
	}
	if limit := s.Dialect.LimitAndOffsetSQL(params.Limit, params.Offset, len(params.Order) > 0); limit != "" {
		stmt.WriteByte(' ')
		stmt.WriteString(limit)
	}

	begin := time.Now()
	rows, err := s.pool.QueryContext(ctx, stmt.SQL(), stmt.Vars...)
	var results []map[string]interface{}
	if err == nil {
		results, err = scanRows(rows)
	}
	s.trace(ctx, begin, logger.Operation{Name: logger.OpGetList, Params: params}, stmt, int64(len(results)), err)
	if err != nil {
		return nil, err
	}
	return datamanager.NewRows(results...), nil
}

// GetCount count rows matching the filter
func (s *Store) GetCount(ctx context.Context, filter clause.Filter) (int64, error) {
	stmt := NewStatement(s.Dialect)
	stmt.WriteString("SELECT COUNT(*) FROM ")
	stmt.WriteQuoted(s.table)
	if filter.Len() > 0 {
		stmt.AddClause(clause.Where{Filter: filter})
	}

	var count int64
	begin := time.Now()
	err := s.pool.QueryRowContext(ctx, stmt.SQL(), stmt.Vars...).Scan(&count)
	s.trace(ctx, begin, logger.Operation{Name: logger.OpGetCount, Params: clause.Parameters{Filter: filter}}, stmt, count, err)
	return count, err
}

// Add insert row, returns the generated id
func (s *Store) Add(ctx context.Context, values map[string]interface{}) *datamanager.Result {
	columns := sortedColumns(values, "")
	if len(columns) == 0 {
		return datamanager.Failure("sqlstore: no values to insert into " + s.table)
	}

	stmt := NewStatement(s.Dialect)
	stmt.WriteString("INSERT INTO ")
	stmt.WriteQuoted(s.table)
	stmt.WriteString(" (")
	for idx, column := range columns {
		if idx > 0 {
			stmt.WriteByte(',')
		}
		stmt.WriteQuoted(column)
	}
	stmt.WriteByte(')')

	output := s.Dialect.LastInsertIDOutputInterstitial(s.table, s.PrimaryKey)
	returning := s.Dialect.LastInsertIDReturningSuffix(s.table, s.PrimaryKey)
	stmt.WriteString(output)
	stmt.WriteString(" VALUES (")
	for idx, column := range columns {
		if idx > 0 {
			stmt.WriteByte(',')
		}
		stmt.AddVar(stmt, values[column])
	}
	stmt.WriteByte(')')
	stmt.WriteString(returning)

	var (
		id  interface{}
		err error
	)
	begin := time.Now()
	if output != "" || returning != "" {
		var inserted int64
		err = s.pool.QueryRowContext(ctx, stmt.SQL(), stmt.Vars...).Scan(&inserted)
		id = inserted
	} else {
		var result sql.Result
		if result, err = s.pool.ExecContext(ctx, stmt.SQL(), stmt.Vars...); err == nil {
			id, err = result.LastInsertId()
		}
	}
	s.trace(ctx, begin, logger.Operation{Name: logger.OpAdd}, stmt, 1, err)

	if err != nil {
		return s.failure(err)
	}
	return datamanager.Success(id)
}

// Update update the row with the primary key, a different primary key value in values is written as the new key
func (s *Store) Update(ctx context.Context, primary interface{}, values map[string]interface{}) *datamanager.Result {
	id, skip := primary, s.PrimaryKey
	if key, ok := values[s.PrimaryKey]; ok && !clause.LooseEqual(key, primary) {
		id, skip = key, ""
	}

	columns := sortedColumns(values, skip)
	if len(columns) == 0 {
		return datamanager.Success(primary)
	}

	stmt := NewStatement(s.Dialect)
	stmt.WriteString("UPDATE ")
	stmt.WriteQuoted(s.table)
	stmt.WriteString(" SET ")
	for idx, column := range columns {
		if idx > 0 {
			stmt.WriteByte(',')
		}
		stmt.WriteQuoted(column)
		stmt.WriteByte('=')
		stmt.AddVar(stmt, values[column])
	}
	s.wherePrimary(stmt, primary)

	affected, err := s.exec(ctx, logger.Operation{Name: logger.OpUpdate, ID: primary}, stmt)
	if err != nil {
		return s.failure(err)
	}
	if affected == 0 {
		// unchanged rows are not counted as affected by some databases
		count, err := s.GetCount(ctx, clause.NewFilter(clause.Cond{Op: clause.Eq, Column: s.PrimaryKey, Value: primary}))
		if err != nil {
			return s.failure(err)
		}
		if count == 0 {
			return s.notFound(primary)
		}
	}
	return datamanager.Success(id)
}

// Delete delete the row with the primary key
func (s *Store) Delete(ctx context.Context, primary interface{}) *datamanager.Result {
	stmt := NewStatement(s.Dialect)
	stmt.WriteString("DELETE FROM ")
	stmt.WriteQuoted(s.table)
	s.wherePrimary(stmt, primary)

	affected, err := s.exec(ctx, logger.Operation{Name: logger.OpDelete, ID: primary}, stmt)
	if err != nil {
		return s.failure(err)
	}
	if affected == 0 {
		return s.notFound(primary)
	}
	return datamanager.Success(primary)
}

func (s *Store) wherePrimary(stmt *Statement, primary interface{}) {
	stmt.AddClause(clause.Where{Filter: clause.NewFilter(clause.Cond{Op: clause.Eq, Column: s.PrimaryKey, Value: primary})})
}

func (s *Store) exec(ctx context.Context, op logger.Operation, stmt *Statement) (int64, error) {
	begin := time.Now()
	result, err := s.pool.ExecContext(ctx, stmt.SQL(), stmt.Vars...)

	var affected int64
	if err == nil {
		affected, err = result.RowsAffected()
	}
	s.trace(ctx, begin, op, stmt, affected, err)
	return affected, err
}

func (s *Store) notFound(primary interface{}) *datamanager.Result {
	return datamanager.Failure(fmt.Sprintf("%v: %s %v", datamanager.ErrRecordNotFound, s.table, primary))
}

func (s *Store) trace(ctx context.Context, begin time.Time, op logger.Operation, stmt *Statement, rows int64, err error) {
	s.Logger.Trace(ctx, begin, func() (logger.Operation, int64) {
		op.Table = s.table
		op.Statement, op.Vars, op.NumericPlaceholder = stmt.SQL(), stmt.Vars, s.Dialect.NumericPlaceholder()
		return op, rows
	}, err)
}

func sortedColumns(values map[string]interface{}, skip string) []string {
	columns := make([]string, 0, len(values))
	for column := range values {
		if column != skip {
			columns = append(columns, column)
		}
	}
	sort.Strings(columns)
	return columns
}

func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for idx := range values {
			pointers[idx] = &values[idx]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for idx, column := range columns {
			if data, ok := values[idx].([]byte); ok {
				row[column] = string(data)
			} else {
				row[column] = values[idx]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
