package catalog

import (
	"context"
	"database/sql"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"schemarelate/internal/nameutil"
	"schemarelate/internal/telemetry"
)

// Queryer is the minimal query surface MySQLCatalog needs from a
// *sql.DB (or a mock standing in for one in tests).
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// MySQLCatalog implements Catalog by querying a MySQL/TiDB server's
// INFORMATION_SCHEMA over a live connection.
type MySQLCatalog struct {
	db           Queryer
	databaseName string
	ctx          context.Context
}

// NewMySQLCatalog creates a MySQLCatalog bound to db and databaseName.
// ctx is used for every query issued by the catalog.
func NewMySQLCatalog(ctx context.Context, db Queryer, databaseName string) *MySQLCatalog {
	return &MySQLCatalog{db: db, databaseName: databaseName, ctx: ctx}
}

// ListTables returns every base table and view name in the configured
// database, ordered by name.
func (c *MySQLCatalog) ListTables() ([]string, error) {
	ctx, span := telemetry.StartSpan(c.ctx, "catalog.list_tables",
		attribute.String("db.name", c.databaseName))
	defer span.End()

	rows, err := c.db.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ?
		AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_NAME
	`, c.databaseName)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			telemetry.RecordSpanError(span, err)
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}
	return names, nil
}

// DescribeTable returns column, primary key, and unique constraint
// metadata for rawName.
func (c *MySQLCatalog) DescribeTable(rawName string) (Table, error) {
	ctx, span := telemetry.StartSpan(c.ctx, "catalog.describe_table",
		attribute.String("db.name", c.databaseName),
		attribute.String("db.table", rawName))
	defer span.End()

	isView, comment, err := c.tableInfo(ctx, rawName)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return Table{}, err
	}

	columns, err := c.columns(ctx, rawName)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return Table{}, err
	}

	primaryKey, err := c.primaryKey(ctx, rawName)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return Table{}, err
	}
	pkSet := make(map[string]bool, len(primaryKey))
	for _, name := range primaryKey {
		pkSet[name] = true
	}

	uniques, err := c.uniqueConstraints(ctx, rawName, pkSet)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return Table{}, err
	}

	return Table{
		RawName:           rawName,
		SanitizedName:     nameutil.Sanitize(rawName, false),
		IsView:            isView,
		Columns:           columns,
		PrimaryKey:        primaryKey,
		UniqueConstraints: uniques,
		Comment:           comment,
	}, nil
}

// ForeignKeys returns the outgoing foreign key constraints declared on rawName.
func (c *MySQLCatalog) ForeignKeys(rawName string) ([]ForeignKey, error) {
	ctx, span := telemetry.StartSpan(c.ctx, "catalog.foreign_keys",
		attribute.String("db.name", c.databaseName),
		attribute.String("db.table", rawName))
	defer span.End()

	rows, err := c.db.QueryContext(ctx, `
		SELECT CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ?
			AND TABLE_NAME = ?
			AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION
	`, c.databaseName, rawName)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byConstraint := make(map[string]*ForeignKey)
	var order []string
	for rows.Next() {
		var constraintName, columnName, refTable, refColumn string
		if err := rows.Scan(&constraintName, &columnName, &refTable, &refColumn); err != nil {
			telemetry.RecordSpanError(span, err)
			return nil, err
		}
		fk, ok := byConstraint[constraintName]
		if !ok {
			fk = &ForeignKey{ConstraintName: constraintName, LocalTable: rawName, RemoteTable: refTable}
			byConstraint[constraintName] = fk
			order = append(order, constraintName)
		}
		fk.LocalColumns = append(fk.LocalColumns, columnName)
		fk.RemoteColumns = append(fk.RemoteColumns, refColumn)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	result := make([]ForeignKey, 0, len(order))
	for _, name := range order {
		result = append(result, *byConstraint[name])
	}
	return result, nil
}

func (c *MySQLCatalog) tableInfo(ctx context.Context, rawName string) (isView bool, comment string, err error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT TABLE_TYPE, TABLE_COMMENT
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	`, c.databaseName, rawName)
	if err != nil {
		return false, "", err
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		var tableType string
		var tableComment sql.NullString
		if err := rows.Scan(&tableType, &tableComment); err != nil {
			return false, "", err
		}
		isView = strings.EqualFold(tableType, "VIEW")
		if tableComment.Valid {
			comment = strings.TrimSpace(tableComment.String)
		}
	}
	return isView, comment, rows.Err()
}

func (c *MySQLCatalog) columns(ctx context.Context, rawName string) ([]Column, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, IS_NULLABLE, COLUMN_TYPE, COLUMN_DEFAULT, COLUMN_COMMENT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`, c.databaseName, rawName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var name, isNullable, columnType string
		var columnDefault, columnComment sql.NullString
		if err := rows.Scan(&name, &isNullable, &columnType, &columnDefault, &columnComment); err != nil {
			return nil, err
		}
		col := Column{
			Name:     name,
			Nullable: strings.EqualFold(isNullable, "YES"),
			TypeHint: columnType,
		}
		if columnDefault.Valid {
			col.Default = columnDefault.String
			col.HasDefault = true
		}
		if columnComment.Valid {
			col.Comment = strings.TrimSpace(columnComment.String)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (c *MySQLCatalog) primaryKey(ctx context.Context, rawName string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ?
			AND TABLE_NAME = ?
			AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION
	`, c.databaseName, rawName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// uniqueConstraints groups STATISTICS rows for unique, non-primary
// indexes into ordered UniqueConstraint values.
func (c *MySQLCatalog) uniqueConstraints(ctx context.Context, rawName string, pkSet map[string]bool) ([]UniqueConstraint, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT INDEX_NAME, NON_UNIQUE, COLUMN_NAME
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = ?
			AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`, c.databaseName, rawName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var order []string
	byName := make(map[string]*UniqueConstraint)
	for rows.Next() {
		var indexName string
		var nonUnique int
		var columnName string
		if err := rows.Scan(&indexName, &nonUnique, &columnName); err != nil {
			return nil, err
		}
		if nonUnique != 0 || strings.EqualFold(indexName, "PRIMARY") {
			continue
		}
		uc, ok := byName[indexName]
		if !ok {
			uc = &UniqueConstraint{Name: indexName}
			byName[indexName] = uc
			order = append(order, indexName)
		}
		uc.Columns = append(uc.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]UniqueConstraint, 0, len(order))
	for _, name := range order {
		uc := *byName[name]
		// A unique index that exactly duplicates the primary key columns
		// carries no new disambiguation information.
		if len(uc.Columns) == len(pkSet) && coversSet(uc.Columns, pkSet) {
			continue
		}
		result = append(result, uc)
	}
	return result, nil
}

func coversSet(columns []string, set map[string]bool) bool {
	for _, c := range columns {
		if !set[c] {
			return false
		}
	}
	return true
}
