package sqlstore

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect sql syntax differences between databases
type Dialect interface {
	// GetName get dialect's name
	GetName() string
	// BindVar return the placeholder for actual values in SQL statements, i starts at 1
	BindVar(i int) string
	// Quote quotes field name to avoid SQL parsing exceptions by using a reserved word as a field name
	Quote(key string) string
	// LimitAndOffsetSQL return generated SQL with Limit and Offset, ordered tells whether an ORDER BY was written
	LimitAndOffsetSQL(limit, offset int, ordered bool) string
	// LastInsertIDOutputInterstitial most dbs support LastInsertId, but mssql needs to use `OUTPUT`
	LastInsertIDOutputInterstitial(tableName, columnName string) string
	// LastInsertIDReturningSuffix most dbs support LastInsertId, but postgres needs to use `RETURNING`
	LastInsertIDReturningSuffix(tableName, columnName string) string
	// NumericPlaceholder matches numbered placeholders when explaining statements, nil for `?`
	NumericPlaceholder() *regexp.Regexp
}

var dialectsMap = map[string]Dialect{}

func init() {
	RegisterDialect("common", &commonDialect{})
	RegisterDialect("mysql", &mysql{})
	RegisterDialect("sqlite3", &sqlite3{})
	RegisterDialect("sqlite", &sqlite3{})
	RegisterDialect("postgres", &postgres{})
	RegisterDialect("pgx", &postgres{})
	RegisterDialect("mssql", &mssql{})
	RegisterDialect("sqlserver", &mssql{})
}

// RegisterDialect register new dialect
func RegisterDialect(name string, dialect Dialect) {
	dialectsMap[name] = dialect
}

// GetDialect gets the dialect for the specified dialect name
func GetDialect(name string) (dialect Dialect, ok bool) {
	dialect, ok = dialectsMap[name]
	return dialect, ok
}

// NewDialect dialect of a database/sql driver name, unknown drivers run under the common dialect
func NewDialect(driver string) Dialect {
	if dialect, ok := GetDialect(driver); ok {
		return dialect
	}
	return &commonDialect{}
}

type commonDialect struct{}

func (commonDialect) GetName() string {
	return "common"
}

func (commonDialect) BindVar(i int) string {
	return "?"
}

func (commonDialect) Quote(key string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(key, `"`, `""`))
}

func (commonDialect) LimitAndOffsetSQL(limit, offset int, ordered bool) (sql string) {
	if limit > 0 {
		sql += fmt.Sprintf("LIMIT %d", limit)
	}
	if offset > 0 {
		if sql != "" {
			sql += " "
		}
		sql += fmt.Sprintf("OFFSET %d", offset)
	}
	return
}

func (commonDialect) LastInsertIDOutputInterstitial(tableName, columnName string) string {
	return ""
}

func (commonDialect) LastInsertIDReturningSuffix(tableName, columnName string) string {
	return ""
}

func (commonDialect) NumericPlaceholder() *regexp.Regexp {
	return nil
}

type mysql struct {
	commonDialect
}

func (mysql) GetName() string {
	return "mysql"
}

func (mysql) Quote(key string) string {
	return fmt.Sprintf("`%s`", strings.ReplaceAll(key, "`", "``"))
}

// LimitAndOffsetSQL mysql needs a limit before an offset
func (mysql) LimitAndOffsetSQL(limit, offset int, ordered bool) string {
	if limit <= 0 && offset > 0 {
		return fmt.Sprintf("LIMIT 18446744073709551615 OFFSET %d", offset)
	}
	return commonDialect{}.LimitAndOffsetSQL(limit, offset, ordered)
}

type sqlite3 struct {
	commonDialect
}

func (sqlite3) GetName() string {
	return "sqlite3"
}

func (sqlite3) LimitAndOffsetSQL(limit, offset int, ordered bool) string {
	if limit <= 0 && offset > 0 {
		return fmt.Sprintf("LIMIT -1 OFFSET %d", offset)
	}
	return commonDialect{}.LimitAndOffsetSQL(limit, offset, ordered)
}

var numericPlaceholder = regexp.MustCompile(`\$(\d+)`)

type postgres struct {
	commonDialect
}

func (postgres) GetName() string {
	return "postgres"
}

func (postgres) BindVar(i int) string {
	return fmt.Sprintf("$%v", i)
}

func (s postgres) LastInsertIDReturningSuffix(tableName, key string) string {
	return fmt.Sprintf(" RETURNING %s", s.Quote(key))
}

func (postgres) NumericPlaceholder() *regexp.Regexp {
	return numericPlaceholder
}

var namedPlaceholder = regexp.MustCompile(`@p(\d+)`)

type mssql struct {
	commonDialect
}

func (mssql) GetName() string {
	return "mssql"
}

func (mssql) BindVar(i int) string {
	return fmt.Sprintf("@p%d", i)
}

func (mssql) Quote(key string) string {
	return fmt.Sprintf("[%s]", strings.ReplaceAll(key, "]", "]]"))
}

// LimitAndOffsetSQL OFFSET FETCH needs an ORDER BY, an unordered query is ordered by a constant
func (mssql) LimitAndOffsetSQL(limit, offset int, ordered bool) (sql string) {
	if limit <= 0 && offset <= 0 {
		return ""
	}
	if !ordered {
		sql = "ORDER BY (SELECT NULL) "
	}
	sql += fmt.Sprintf("OFFSET %d ROWS", offset)
	if limit > 0 {
		sql += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", limit)
	}
	return
}

func (s mssql) LastInsertIDOutputInterstitial(tableName, columnName string) string {
	return fmt.Sprintf(" OUTPUT Inserted.%s", s.Quote(columnName))
}

func (mssql) NumericPlaceholder() *regexp.Regexp {
	return namedPlaceholder
}
