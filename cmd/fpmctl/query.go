/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/fpmstore/client"
)

type queryFlags struct {
	fields    string
	condition string
	args      []string
	page      int
	size      int
	sorts     []string
}

func (f *queryFlags) register(cmd *cobra.Command, paged bool) {
	cmd.Flags().StringVar(&f.condition, "condition", "", "Filter such as \"name = ? and value > ?\"")
	cmd.Flags().StringArrayVar(&f.args, "arg", nil, "Argument for a ? placeholder, repeatable; JSON values keep their type")
	if !paged {
		return
	}
	cmd.Flags().StringVar(&f.fields, "select", "", "Comma separated fields to return")
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number, from 1")
	cmd.Flags().IntVar(&f.size, "size", 0, "Page size, 0 for every row")
	cmd.Flags().StringArrayVar(&f.sorts, "sort", nil, "Ordering such as \"id-\", repeatable")
}

func (f *queryFlags) build(c *client.Client, table string) *client.Query {
	q := c.Query(table)
	if f.fields != "" {
		q.Select(f.fields)
	}
	if f.condition != "" {
		q.Condition(f.condition, parseArgs(f.args)...)
	}
	if f.size > 0 {
		q.Page(f.page, f.size)
	}
	for _, s := range f.sorts {
		q.Sort(s)
	}
	return q
}

// parseArgs decodes each argument as JSON and falls back to the raw string.
func parseArgs(raw []string) []interface{} {
	out := make([]interface{}, 0, len(raw))
	for _, s := range raw {
		var v interface{}
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			v = s
		}
		out = append(out, v)
	}
	return out
}

func firstCmd() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "first <table>",
		Short: "Print the first matching record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			rec, err := f.build(c, args[0]).First(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	f.register(cmd, true)
	return cmd
}

func findCmd() *cobra.Command {
	var f queryFlags
	var withCount bool
	cmd := &cobra.Command{
		Use:   "find <table>",
		Short: "Print matching records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			q := f.build(c, args[0])
			if !withCount {
				rows, err := q.Find(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, rows)
			}
			rows, total, err := q.FindAndCount(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{"count": total, "rows": rows})
		},
	}
	f.register(cmd, true)
	cmd.Flags().BoolVar(&withCount, "count", false, "Also print the total number of matches")
	return cmd
}

func countCmd() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Print the number of matching records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			n, err := f.build(c, args[0]).Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

func clearCmd() *cobra.Command {
	var f queryFlags
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear <table>",
		Short: "Remove every matching record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.condition == "" && !yes {
				return fmt.Errorf("refusing to clear all of %s without --yes", args[0])
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			n, err := f.build(c, args[0]).Clear(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d records\n", n)
			return nil
		},
	}
	f.register(cmd, false)
	cmd.Flags().BoolVar(&yes, "yes", false, "Allow clearing without a condition")
	return cmd
}
