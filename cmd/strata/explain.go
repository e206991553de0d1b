package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strataorm/strata/internal/schemafile"
	"github.com/strataorm/strata/pkg/exec/postgres"
	"github.com/strataorm/strata/pkg/query"
	"github.com/strataorm/strata/pkg/schema"
)

var (
	explainSchema  string
	explainFilters []string
	explainOrder   string
	explainLimit   int
)

var explainCmd = &cobra.Command{
	Use:   "explain <kind>",
	Short: "Plan a query and print the resulting statement",
	Long: `Build a query against a registered kind, run the planning pass and
print the statement a backend would receive, with its out-of-band
parameters listed separately.

Examples:
  strata explain User --schema schemas/shop.yml --where "age>=18" --limit 10
  strata explain Order --schema schemas/shop.yml --where "status=pending" --order "total:desc"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := schema.NewRegistry()
		defs, err := schemafile.Load(explainSchema)
		if err != nil {
			return err
		}
		if err := schemafile.RegisterAll(reg, defs); err != nil {
			return err
		}

		desc, err := reg.Lookup(args[0])
		if err != nil {
			return err
		}

		q := query.From(desc)
		for _, raw := range explainFilters {
			pred, err := parseFilter(raw)
			if err != nil {
				return err
			}
			q = q.Where(pred)
		}
		if explainOrder != "" {
			field, dir, err := parseOrder(explainOrder)
			if err != nil {
				return err
			}
			q = q.OrderBy(field, dir)
		}
		if explainLimit > 0 {
			q = q.Limit(explainLimit)
		}

		stmt, err := query.Plan(q, reg)
		if err != nil {
			printError("planning failed: %v", err)
			return fmt.Errorf("explain failed")
		}

		sql, params, err := postgres.RenderSelect(stmt)
		if err != nil {
			return err
		}

		fmt.Println(sql)
		for i, p := range params {
			printInfo("$%d = %v", i+1, p)
		}
		return nil
	},
}

// parseFilter turns "field<op>value" into a predicate, trying the longest
// operators first. Values are parsed as int, float or bool when possible,
// otherwise kept as strings; they always enter the query through Bind.
func parseFilter(raw string) (query.Expr, error) {
	type op struct {
		token string
		make  func(field string, p query.BoundParam) query.Expr
	}
	ops := []op{
		{">=", query.GTE},
		{"<=", query.LTE},
		{"!=", query.NEQ},
		{">", query.GT},
		{"<", query.LT},
		{"=", query.EQ},
	}
	for _, o := range ops {
		if i := strings.Index(raw, o.token); i > 0 {
			field := strings.TrimSpace(raw[:i])
			value := strings.TrimSpace(raw[i+len(o.token):])
			return o.make(field, query.Bind(parseValue(value))), nil
		}
	}
	return nil, fmt.Errorf("cannot parse filter %q (want field<op>value)", raw)
}

func parseValue(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func parseOrder(s string) (string, query.Direction, error) {
	field, dir, found := strings.Cut(s, ":")
	if !found {
		return field, query.Asc, nil
	}
	switch strings.ToLower(dir) {
	case "asc":
		return field, query.Asc, nil
	case "desc":
		return field, query.Desc, nil
	default:
		return "", "", fmt.Errorf("unknown sort direction %q", dir)
	}
}

func init() {
	explainCmd.Flags().StringVar(&explainSchema, "schema", "", "schema definition file (required)")
	explainCmd.Flags().StringArrayVar(&explainFilters, "where", nil, "filter, e.g. \"age>=18\" (repeatable, ANDed)")
	explainCmd.Flags().StringVar(&explainOrder, "order", "", "sort term, e.g. \"name:desc\"")
	explainCmd.Flags().IntVar(&explainLimit, "limit", 0, "row limit")
	explainCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(explainCmd)
}
