package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hlblock/hlorm"
	"github.com/hlblock/hlorm/internal/filterexpr"
)

type queryFlags struct {
	where  string
	sel    []string
	order  []string
	group  []string
	limit  int
	offset int
	json   bool
}

func (f *queryFlags) builder(ctx context.Context, s *session, table string) (*hlorm.Builder, error) {
	builder, err := filterexpr.Apply(s.db.Query(definition(table)).WithContext(ctx), f.where)
	if err != nil {
		return nil, err
	}

	if len(f.sel) > 0 {
		builder.Select(f.sel...)
	}
	for _, order := range f.order {
		column, direction, _ := strings.Cut(order, ":")
		builder.OrderBy(column, direction)
	}
	if len(f.group) > 0 {
		builder.GroupBy(f.group...)
	}
	if f.limit > 0 {
		builder.Limit(f.limit)
	}
	if f.offset > 0 {
		builder.Offset(f.offset)
	}
	return builder, builder.Error
}

func newGetCmd() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "get <table>",
		Short: "List rows of a table",
		Example: `  hlorm get articles --where 'sort >= 10 AND (title ~ "go" OR id = [1, 2])' --order id:desc --limit 10
  hlorm get articles --select title,sort --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				builder, err := flags.builder(ctx, s, args[0])
				if err != nil {
					return err
				}

				models, err := builder.Get()
				if err != nil {
					return err
				}

				if flags.json {
					encoder := json.NewEncoder(cmd.OutOrStdout())
					encoder.SetIndent("", "  ")
					return encoder.Encode(models)
				}
				return renderTable(cmd.OutOrStdout(), models.ToMaps(), flags.sel)
			})
		},
	}

	cmd.Flags().StringVarP(&flags.where, "where", "w", "", "Filter expression, eg: name = \"ann\" AND sort > 10")
	cmd.Flags().StringSliceVarP(&flags.sel, "select", "s", nil, "Columns to select")
	cmd.Flags().StringSliceVarP(&flags.order, "order", "o", nil, "Order columns as column[:desc]")
	cmd.Flags().StringSliceVar(&flags.group, "group", nil, "Group by columns")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", 0, "Maximum number of rows")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print rows as JSON")
	return cmd
}

func newCountCmd() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				builder, err := flags.builder(ctx, s, args[0])
				if err != nil {
					return err
				}

				count, err := builder.Count()
				if err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "%d\n", count)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&flags.where, "where", "w", "", "Filter expression")
	return cmd
}

func init() {
	rootCmd.AddCommand(newGetCmd(), newCountCmd())
}
