package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/strataorm/strata/pkg/schema"
)

// preload eagerly loads one association for a batch of parent records with
// a single IN query, then attaches the children. Parents with no related
// rows end up LoadedEmpty, never Unloaded.
func (d *Driver) preload(ctx context.Context, src *schema.Descriptor, name string, parents []*schema.Record) ([]*schema.Record, error) {
	if len(parents) == 0 {
		return parents, nil
	}

	assoc := src.Association(name)
	if assoc == nil {
		return nil, &schema.UnknownFieldError{Kind: src.Name(), Field: name}
	}
	target, err := d.registry.Lookup(assoc.Target)
	if err != nil {
		return nil, err
	}

	switch assoc.Kind {
	case schema.HasMany, schema.HasOne:
		return d.preloadHas(ctx, src, target, assoc, parents)
	case schema.BelongsTo:
		return d.preloadBelongsTo(ctx, target, assoc, parents)
	default:
		return nil, fmt.Errorf("unsupported association kind %q", assoc.Kind)
	}
}

// preloadHas handles has_one/has_many: the foreign key lives on the target.
func (d *Driver) preloadHas(ctx context.Context, src, target *schema.Descriptor, assoc *schema.AssociationSpec, parents []*schema.Record) ([]*schema.Record, error) {
	pk := src.PrimaryKey()
	if pk == nil {
		return nil, fmt.Errorf("preload %q requires %s to have a primary key", assoc.Name, src.Name())
	}

	var keys []interface{}
	for _, p := range parents {
		if v := p.Get(pk.Name); v != nil {
			dumped, err := schema.Dump(pk.Type, v)
			if err != nil {
				return nil, err
			}
			keys = append(keys, dumped)
		}
	}

	children, err := d.fetchByKeys(ctx, target, assoc.ForeignKey, keys)
	if err != nil {
		return nil, err
	}

	byFK := make(map[string][]*schema.Record)
	for _, c := range children {
		k := keyString(c.Get(assoc.ForeignKey))
		byFK[k] = append(byFK[k], c)
	}

	out := make([]*schema.Record, len(parents))
	for i, p := range parents {
		matched := byFK[keyString(p.Get(pk.Name))]
		if assoc.Kind == schema.HasOne && len(matched) > 1 {
			matched = matched[:1]
		}
		rec, err := p.WithAssociation(assoc.Name, matched)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// preloadBelongsTo handles belongs_to: the foreign key lives on the parent.
func (d *Driver) preloadBelongsTo(ctx context.Context, target *schema.Descriptor, assoc *schema.AssociationSpec, parents []*schema.Record) ([]*schema.Record, error) {
	targetPK := target.PrimaryKey()
	if targetPK == nil {
		return nil, fmt.Errorf("preload %q requires %s to have a primary key", assoc.Name, target.Name())
	}

	var keys []interface{}
	for _, p := range parents {
		if v := p.Get(assoc.ForeignKey); v != nil {
			dumped, err := schema.Dump(targetPK.Type, v)
			if err != nil {
				return nil, err
			}
			keys = append(keys, dumped)
		}
	}

	children, err := d.fetchByKeys(ctx, target, targetPK.Name, keys)
	if err != nil {
		return nil, err
	}

	byPK := make(map[string]*schema.Record, len(children))
	for _, c := range children {
		byPK[keyString(c.Get(targetPK.Name))] = c
	}

	out := make([]*schema.Record, len(parents))
	for i, p := range parents {
		var matched []*schema.Record
		if c, ok := byPK[keyString(p.Get(assoc.ForeignKey))]; ok {
			matched = []*schema.Record{c}
		}
		rec, err := p.WithAssociation(assoc.Name, matched)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

func (d *Driver) fetchByKeys(ctx context.Context, desc *schema.Descriptor, field string, keys []interface{}) ([]*schema.Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(keys))
	for i := range keys {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	sql := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s IN (%s)",
		desc.Source(), field, strings.Join(placeholders, ", "),
	)

	rows, err := d.queryRows(ctx, sql, keys)
	if err != nil {
		return nil, err
	}

	records := make([]*schema.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := schema.FromRow(desc, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// keyString normalizes a key value for grouping. Typed values that print
// the same (uuid vs its string form) group together.
func keyString(v interface{}) string {
	return fmt.Sprintf("%v", v)
}
