package sqlstore_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlblock/hlorm"
	"github.com/hlblock/hlorm/datamanager/sqlstore"
)

var author = &hlorm.Definition{Name: "Author", Table: "authors"}

func TestModelsOverSQL(t *testing.T) {
	sqlDB, mock := newMock(t)
	db, err := hlorm.Open(&hlorm.Config{
		Managers: sqlstore.Resolver(sqlDB, &sqlstore.Config{Dialect: sqlstore.NewDialect("mysql")}),
	})
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM `authors` WHERE `UF_NAME` = ? LIMIT 1").
		WithArgs("ann").
		WillReturnRows(sqlmock.NewRows([]string{"ID", "UF_NAME"}).AddRow(int64(1), []byte("ann")))

	ann, err := db.Query(author).WithContext(ctx).Where("name", "ann").First()
	require.NoError(t, err)
	require.NotNil(t, ann)
	assert.Equal(t, int64(1), ann.GetKey())
	assert.Equal(t, "ann", ann.GetAttribute("name"))

	mock.ExpectExec("UPDATE `authors` SET `UF_NAME`=? WHERE `ID` = ?").
		WithArgs("anna", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, ann.SetAttribute("name", "anna"))
	saved, err := ann.Save(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.False(t, ann.IsDirty())

	mock.ExpectExec("INSERT INTO `authors` (`UF_NAME`) VALUES (?)").
		WithArgs("bob").
		WillReturnResult(sqlmock.NewResult(2, 1))

	bob, err := db.Create(ctx, author, map[string]interface{}{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), bob.GetKey())
	assert.True(t, bob.WasRecentlyCreated)

	mock.ExpectQuery("SELECT COUNT(*) FROM `authors` WHERE `ID` IN (?,?)").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))

	count, err := db.Query(author).Where("id", []interface{}{1, 2}).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mock.ExpectExec("DELETE FROM `authors` WHERE `ID` = ?").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := bob.Delete(ctx)
	require.NoError(t, err)
	assert.True(t, deleted)
}
