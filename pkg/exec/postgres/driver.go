package postgres

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/strataorm/strata/pkg/changeset"
	"github.com/strataorm/strata/pkg/exec"
	"github.com/strataorm/strata/pkg/query"
	"github.com/strataorm/strata/pkg/schema"
)

// Driver executes planned statements and changesets against PostgreSQL.
// It implements exec.Facade.
type Driver struct {
	connector *Connector
	registry  *schema.Registry
}

// NewDriver wraps a connected Connector and the schema registry used to
// resolve association targets during preloading.
func NewDriver(connector *Connector, registry *schema.Registry) *Driver {
	return &Driver{connector: connector, registry: registry}
}

var _ exec.Facade = (*Driver)(nil)

// Execute runs a planned read statement, scans the rows into records and
// eagerly loads any preloaded associations.
func (d *Driver) Execute(ctx context.Context, stmt *query.PlannedStatement) ([]*schema.Record, error) {
	if !d.connector.IsConnected() {
		return nil, &exec.Error{Kind: exec.ConnectionFailure, Err: fmt.Errorf("not connected")}
	}

	sql, args, err := RenderSelect(stmt)
	if err != nil {
		return nil, err
	}

	rows, err := d.queryRows(ctx, sql, args)
	if err != nil {
		return nil, err
	}

	records := make([]*schema.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := schema.FromRow(stmt.Source(), row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	for _, assocName := range stmt.Preloads() {
		records, err = d.preload(ctx, stmt.Source(), assocName, records)
		if err != nil {
			return nil, err
		}
	}

	return records, nil
}

// Apply writes a valid changeset: INSERT when the base record has no
// primary key value, UPDATE otherwise. The stored row comes back via
// RETURNING *.
func (d *Driver) Apply(ctx context.Context, cs *changeset.Changeset) (*schema.Record, error) {
	if !d.connector.IsConnected() {
		return nil, &exec.Error{Kind: exec.ConnectionFailure, Err: fmt.Errorf("not connected")}
	}

	rec, err := cs.Apply()
	if err != nil {
		return nil, err
	}

	desc := rec.Descriptor()
	if rec.PrimaryKeyValue() == nil || cs.Base().PrimaryKeyValue() == nil {
		return d.insert(ctx, desc, rec)
	}
	return d.update(ctx, desc, cs)
}

// Delete removes the record identified by its primary key. Zero affected
// rows surface as NotFound.
func (d *Driver) Delete(ctx context.Context, rec *schema.Record) error {
	if !d.connector.IsConnected() {
		return &exec.Error{Kind: exec.ConnectionFailure, Err: fmt.Errorf("not connected")}
	}

	desc := rec.Descriptor()
	pk := desc.PrimaryKey()
	if pk == nil || rec.PrimaryKeyValue() == nil {
		return fmt.Errorf("cannot delete %s record without a primary key value", desc.Name())
	}

	pkValue, err := schema.Dump(pk.Type, rec.PrimaryKeyValue())
	if err != nil {
		return err
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", desc.Source(), pk.Name)
	tag, err := d.connector.Pool().Exec(ctx, sql, pkValue)
	if err != nil {
		return mapDatabaseError(err)
	}
	if tag.RowsAffected() == 0 {
		return &exec.Error{Kind: exec.NotFound}
	}
	return nil
}

func (d *Driver) insert(ctx context.Context, desc *schema.Descriptor, rec *schema.Record) (*schema.Record, error) {
	row, err := rec.ToRow()
	if err != nil {
		return nil, err
	}

	// Omit nil columns so database defaults can fill them.
	var fields []string
	for name, v := range row {
		if v != nil {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)

	placeholders := make([]string, len(fields))
	values := make([]interface{}, len(fields))
	for i, f := range fields {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		values[i] = row[f]
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		desc.Source(),
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
	)

	return d.queryOne(ctx, desc, sql, values)
}

func (d *Driver) update(ctx context.Context, desc *schema.Descriptor, cs *changeset.Changeset) (*schema.Record, error) {
	changes := cs.Changes()
	if len(changes) == 0 {
		return cs.Base(), nil
	}

	var fields []string
	for name := range changes {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	setClauses := make([]string, len(fields))
	values := make([]interface{}, 0, len(fields)+1)
	for i, f := range fields {
		v, err := schema.Dump(desc.Field(f).Type, changes[f])
		if err != nil {
			return nil, err
		}
		setClauses[i] = fmt.Sprintf("%s = $%d", f, i+1)
		values = append(values, v)
	}

	pk := desc.PrimaryKey()
	pkValue, err := schema.Dump(pk.Type, cs.Base().PrimaryKeyValue())
	if err != nil {
		return nil, err
	}
	values = append(values, pkValue)

	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d RETURNING *",
		desc.Source(),
		strings.Join(setClauses, ", "),
		pk.Name,
		len(values),
	)

	return d.queryOne(ctx, desc, sql, values)
}

func (d *Driver) queryOne(ctx context.Context, desc *schema.Descriptor, sql string, args []interface{}) (*schema.Record, error) {
	rows, err := d.queryRows(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &exec.Error{Kind: exec.NotFound}
	}
	return schema.FromRow(desc, rows[0])
}

func (d *Driver) queryRows(ctx context.Context, sql string, args []interface{}) ([]schema.Row, error) {
	rows, err := d.connector.Pool().Query(ctx, sql, args...)
	if err != nil {
		return nil, mapDatabaseError(err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, mapDatabaseError(err)
	}
	return out, nil
}

// scanRows converts pgx rows into schema rows.
func scanRows(rows pgx.Rows) ([]schema.Row, error) {
	var result []schema.Row
	columns := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(schema.Row, len(columns))
		for i, col := range columns {
			row[col.Name] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
