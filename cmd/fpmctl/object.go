/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// parseID keeps numeric ids numeric.
func parseID(s string) interface{} {
	return parseArgs([]string{s})[0]
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Print the record with id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			obj := c.Object(args[0], nil)
			if err := obj.Get(ctx, parseID(args[1])); err != nil {
				return err
			}
			return printJSON(cmd, obj.Fields())
		},
	}
}

func saveCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "save <table> <json-fields>",
		Short: "Create a record, or update it when --id is given",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields map[string]interface{}
			if err := json.Unmarshal([]byte(args[1]), &fields); err != nil {
				return fmt.Errorf("invalid JSON: %v", err)
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			obj := c.Object(args[0], nil)
			if id != "" {
				obj.Set("id", parseID(id))
			}
			if err := obj.Save(ctx, fields); err != nil {
				return err
			}
			return printJSON(cmd, obj.Fields())
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Id of the record to update")
	return cmd
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <table> <id>",
		Short: "Remove the record with id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if err := c.Object(args[0], nil).Remove(ctx, parseID(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s\n", args[0], args[1])
			return nil
		},
	}
}
