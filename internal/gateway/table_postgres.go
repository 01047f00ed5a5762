// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/database/schema"
	"github.com/billowria/teampulse/internal/platform/dberr"
)

// PostgresTables implements [Tables] over a pgx connection pool.
//
// # SQL Construction
//
// Queries are assembled from the schema registry only: every table and
// column identifier is resolved through [schema.Lookup] before it reaches a
// SQL string, so caller input can select placement but never inject
// identifiers. Values always travel as bind parameters.
type PostgresTables struct {
	db *pgxpool.Pool
}

// NewPostgresTables constructs a PostgreSQL backed table store.
func NewPostgresTables(db *pgxpool.Pool) *PostgresTables {
	return &PostgresTables{db: db}
}

/*
Read returns all rows matching the filters, projected to the given columns.

Description: Validates identifiers against the schema registry, builds a
parameterized SELECT, and hydrates each result row into a [Row] map.

Parameters:
  - ctx: context.Context
  - table: string (fully qualified contract name)
  - filters: []Filter
  - projection: []string (empty selects every contract column)

Returns:
  - []Row: Matching rows (empty slice when none)
  - error: Validation or database retrieval failures
*/
func (store *PostgresTables) Read(ctx context.Context, table string, filters []Filter, projection []string) ([]Row, error) {
	definition, err := lookupTable(table)
	if err != nil {
		return nil, err
	}

	columns, err := resolveProjection(definition, projection)
	if err != nil {
		return nil, err
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(strings.Join(physicalNames(definition, columns), ", "))
	queryBuilder.WriteString(" FROM ")
	queryBuilder.WriteString(definition.Name)

	args, err := appendWhere(&queryBuilder, definition, filters, 1)
	if err != nil {
		return nil, err
	}

	rows, err := store.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, dberr.Wrap(err, "gateway_read_"+table)
	}
	defer rows.Close()

	results := make([]Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, dberr.Wrap(err, "gateway_scan_"+table)
		}

		row := make(Row, len(columns))
		for i, logical := range columns {
			row[logical] = values[i]
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "gateway_rows_"+table)
	}

	return results, nil
}

/*
Upsert inserts the row, updating non-conflict columns when the conflict key
already exists.

Description: Builds INSERT ... ON CONFLICT (...) DO UPDATE SET ... RETURNING
over validated identifiers. Used by the notification aggregator for read
receipts, where the (announcement, user) row may or may not exist yet.

Parameters:
  - ctx: context.Context
  - table: string
  - row: Row (logical column → value)
  - conflictColumns: []string (the conflict key)

Returns:
  - Row: The stored row as returned by the database
  - error: Validation or persistence failures
*/
func (store *PostgresTables) Upsert(ctx context.Context, table string, row Row, conflictColumns []string) (Row, error) {
	definition, err := lookupTable(table)
	if err != nil {
		return nil, err
	}

	if len(row) == 0 {
		return nil, apperr.ValidationError("Upsert row must not be empty")
	}

	// Deterministic column order keeps generated SQL stable for logging/tests.
	logicals := sortedColumns(row)

	insertCols := make([]string, 0, len(logicals))
	placeholders := make([]string, 0, len(logicals))
	args := make([]any, 0, len(logicals))

	for i, logical := range logicals {
		physical, ok := definition.Column(logical)
		if !ok {
			return nil, unknownColumn(definition, logical)
		}
		insertCols = append(insertCols, physical)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, row[logical])
	}

	conflictPhysical := make([]string, 0, len(conflictColumns))
	isConflictKey := make(map[string]bool, len(conflictColumns))
	for _, logical := range conflictColumns {
		physical, ok := definition.Column(logical)
		if !ok {
			return nil, unknownColumn(definition, logical)
		}
		conflictPhysical = append(conflictPhysical, physical)
		isConflictKey[logical] = true
	}

	// Non-key columns become the DO UPDATE SET list.
	setClauses := make([]string, 0, len(logicals))
	for _, logical := range logicals {
		if isConflictKey[logical] {
			continue
		}
		physical, _ := definition.Column(logical)
		setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", physical, physical))
	}

	var queryBuilder strings.Builder
	fmt.Fprintf(&queryBuilder, "INSERT INTO %s (%s) VALUES (%s)",
		definition.Name,
		strings.Join(insertCols, ", "),
		strings.Join(placeholders, ", "),
	)

	if len(conflictPhysical) > 0 {
		if len(setClauses) == 0 {
			fmt.Fprintf(&queryBuilder, " ON CONFLICT (%s) DO NOTHING", strings.Join(conflictPhysical, ", "))
		} else {
			fmt.Fprintf(&queryBuilder, " ON CONFLICT (%s) DO UPDATE SET %s",
				strings.Join(conflictPhysical, ", "),
				strings.Join(setClauses, ", "),
			)
		}
	}

	fmt.Fprintf(&queryBuilder, " RETURNING %s", strings.Join(insertCols, ", "))

	values := make([]any, len(logicals))
	scanTargets := make([]any, len(logicals))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	if err := store.db.QueryRow(ctx, queryBuilder.String(), args...).Scan(scanTargets...); err != nil {
		return nil, dberr.Wrap(err, "gateway_upsert_"+table)
	}

	stored := make(Row, len(logicals))
	for i, logical := range logicals {
		stored[logical] = values[i]
	}
	return stored, nil
}

/*
Update patches all rows matching the filters.

Parameters:
  - ctx: context.Context
  - table: string
  - filters: []Filter
  - patch: Row (logical column → new value)

Returns:
  - error: Validation or persistence failures
*/
func (store *PostgresTables) Update(ctx context.Context, table string, filters []Filter, patch Row) error {
	definition, err := lookupTable(table)
	if err != nil {
		return err
	}

	if len(patch) == 0 {
		return apperr.ValidationError("Update patch must not be empty")
	}

	logicals := sortedColumns(patch)

	setClauses := make([]string, 0, len(logicals))
	args := make([]any, 0, len(logicals)+len(filters))
	argID := 1

	for _, logical := range logicals {
		physical, ok := definition.Column(logical)
		if !ok {
			return unknownColumn(definition, logical)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", physical, argID))
		args = append(args, patch[logical])
		argID++
	}

	var queryBuilder strings.Builder
	fmt.Fprintf(&queryBuilder, "UPDATE %s SET %s", definition.Name, strings.Join(setClauses, ", "))

	filterArgs, err := appendWhere(&queryBuilder, definition, filters, argID)
	if err != nil {
		return err
	}
	args = append(args, filterArgs...)

	if _, err := store.db.Exec(ctx, queryBuilder.String(), args...); err != nil {
		return dberr.Wrap(err, "gateway_update_"+table)
	}

	return nil
}

// # SQL Assembly Helpers

// lookupTable resolves a contract table name or fails with a validation error.
func lookupTable(table string) (schema.Table, error) {
	definition, ok := schema.Lookup(table)
	if !ok {
		return schema.Table{}, apperr.ValidationError(fmt.Sprintf("Unknown table %q", table))
	}
	return definition, nil
}

// resolveProjection validates the projection, defaulting to every contract column.
func resolveProjection(definition schema.Table, projection []string) ([]string, error) {
	if len(projection) == 0 {
		return sortedKeys(definition.Cols), nil
	}
	for _, logical := range projection {
		if _, ok := definition.Column(logical); !ok {
			return nil, unknownColumn(definition, logical)
		}
	}
	return projection, nil
}

// appendWhere renders the filters into a WHERE clause, returning bind args.
func appendWhere(builder *strings.Builder, definition schema.Table, filters []Filter, firstArgID int) ([]any, error) {
	args := make([]any, 0, len(filters))
	argID := firstArgID

	for i, filter := range filters {
		physical, ok := definition.Column(filter.Column)
		if !ok {
			return nil, unknownColumn(definition, filter.Column)
		}

		if i == 0 {
			builder.WriteString(" WHERE ")
		} else {
			builder.WriteString(" AND ")
		}

		switch filter.Op {
		case OpEq:
			fmt.Fprintf(builder, "%s = $%d", physical, argID)
		case OpGt:
			fmt.Fprintf(builder, "%s > $%d", physical, argID)
		case OpLt:
			fmt.Fprintf(builder, "%s < $%d", physical, argID)
		case OpIn:
			fmt.Fprintf(builder, "%s = ANY($%d)", physical, argID)
		default:
			return nil, apperr.ValidationError(fmt.Sprintf("Unknown filter operator %q", filter.Op))
		}

		args = append(args, filter.Value)
		argID++
	}

	return args, nil
}

// physicalNames maps logical column identifiers to physical names.
func physicalNames(definition schema.Table, logicals []string) []string {
	physicals := make([]string, len(logicals))
	for i, logical := range logicals {
		physicals[i], _ = definition.Column(logical)
	}
	return physicals
}

// unknownColumn builds the standard out-of-contract column error.
func unknownColumn(definition schema.Table, logical string) error {
	return apperr.ValidationError(fmt.Sprintf("Unknown column %q on table %q", logical, definition.Name))
}

// sortedColumns returns the row's logical columns in deterministic order.
func sortedColumns(row Row) []string {
	logicals := make([]string, 0, len(row))
	for logical := range row {
		logicals = append(logicals, logical)
	}
	sort.Strings(logicals)
	return logicals
}

// sortedKeys returns the map's keys in deterministic order.
func sortedKeys(cols map[string]string) []string {
	logicals := make([]string, 0, len(cols))
	for logical := range cols {
		logicals = append(logicals, logical)
	}
	sort.Strings(logicals)
	return logicals
}
