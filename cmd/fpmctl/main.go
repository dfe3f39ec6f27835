/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/suparena/fpmstore"
	"github.com/suparena/fpmstore/client"
	"github.com/suparena/fpmstore/config"
)

var (
	endpoint  string
	appKey    string
	masterKey string
	version   string
	timeout   int
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	// Flags default to FPM_* variables, optionally read from .env.
	_ = config.LoadEnv()

	cmd := &cobra.Command{
		Use:          "fpmctl",
		Short:        "Command line client for the fpmstore data API",
		Version:      fpmstore.GetVersionInfo().String(),
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&endpoint, "endpoint", envOr("FPM_ENDPOINT", client.DefaultEndpoint), "API endpoint")
	flags.StringVar(&appKey, "appkey", os.Getenv("FPM_APPKEY"), "App key")
	flags.StringVar(&masterKey, "masterkey", os.Getenv("FPM_MASTERKEY"), "Master key used to sign requests")
	flags.StringVar(&version, "api-version", envOr("FPM_VERSION", client.DefaultVersion), "API version sent as v with each request")
	flags.IntVar(&timeout, "timeout", envInt("FPM_TIMEOUT", int(client.DefaultTimeout/time.Second)), "Request timeout in seconds")

	cmd.AddCommand(firstCmd())
	cmd.AddCommand(findCmd())
	cmd.AddCommand(countCmd())
	cmd.AddCommand(clearCmd())
	cmd.AddCommand(getCmd())
	cmd.AddCommand(saveCmd())
	cmd.AddCommand(removeCmd())
	cmd.AddCommand(pingCmd())
	cmd.AddCommand(watchCmd())

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt ignores values that are not positive whole numbers.
func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func newClient() (*client.Client, error) {
	return client.New(&client.Config{
		AppKey:    appKey,
		MasterKey: masterKey,
		Endpoint:  endpoint,
		Version:   version,
		Timeout:   time.Duration(timeout) * time.Second,
	})
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server accepts signed requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var out map[string]interface{}
			if err := c.Execute(ctx, "system.ping", nil, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pong from %s\n", endpoint)
			return nil
		},
	}
}
