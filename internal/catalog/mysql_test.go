package catalog

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLCatalog_ListTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT TABLE_NAME").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).
			AddRow("author").
			AddRow("book"))

	cat := NewMySQLCatalog(context.Background(), db, "testdb")
	tables, err := cat.ListTables()
	require.NoError(t, err)
	assert.Equal(t, []string{"author", "book"}, tables)
}

func TestMySQLCatalog_DescribeTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT TABLE_TYPE, TABLE_COMMENT").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_TYPE", "TABLE_COMMENT"}).
			AddRow("BASE TABLE", "people who write books"))

	mock.ExpectQuery("SELECT COLUMN_NAME, IS_NULLABLE").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "IS_NULLABLE", "COLUMN_TYPE", "COLUMN_DEFAULT", "COLUMN_COMMENT"}).
			AddRow("id", "NO", "bigint", nil, nil).
			AddRow("name", "NO", "varchar(255)", nil, nil))

	mock.ExpectQuery("SELECT COLUMN_NAME\\s+FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}).
			AddRow("id"))

	mock.ExpectQuery("SELECT INDEX_NAME, NON_UNIQUE, COLUMN_NAME").
		WillReturnRows(sqlmock.NewRows([]string{"INDEX_NAME", "NON_UNIQUE", "COLUMN_NAME"}).
			AddRow("PRIMARY", 0, "id"))

	cat := NewMySQLCatalog(context.Background(), db, "testdb")
	table, err := cat.DescribeTable("author")
	require.NoError(t, err)

	assert.Equal(t, "author", table.SanitizedName)
	assert.False(t, table.IsView)
	assert.Equal(t, "people who write books", table.Comment)
	assert.Equal(t, []string{"id"}, table.PrimaryKey)
	assert.Len(t, table.Columns, 2)
	assert.Empty(t, table.UniqueConstraints)
}

func TestMySQLCatalog_ForeignKeys_GroupsMultiColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT CONSTRAINT_NAME").
		WillReturnRows(sqlmock.NewRows([]string{"CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"}).
			AddRow("fk_order", "order_id", "order", "id").
			AddRow("fk_order", "line_no", "order", "line_no"))

	cat := NewMySQLCatalog(context.Background(), db, "testdb")
	fks, err := cat.ForeignKeys("order_line")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, []string{"order_id", "line_no"}, fks[0].LocalColumns)
	assert.Equal(t, []string{"id", "line_no"}, fks[0].RemoteColumns)
}
