/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/spf13/cobra"

	"github.com/suparena/fpmstore/events"
)

func watchCmd() *cobra.Command {
	cfg := events.KafkaConfig{}
	var brokers string
	cmd := &cobra.Command{
		Use:   "watch [table...]",
		Short: "Print change events from kafka, optionally for some tables only",
		RunE: func(cmd *cobra.Command, args []string) error {
			if brokers == "" || cfg.Topic == "" {
				return fmt.Errorf("--brokers and --topic are required")
			}
			for _, b := range strings.Split(brokers, ",") {
				if b = strings.TrimSpace(b); b != "" {
					cfg.Brokers = append(cfg.Brokers, b)
				}
			}
			tables := make(map[string]bool, len(args))
			for _, t := range args {
				tables[t] = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			loggers := ldlog.NewDefaultLoggers()
			loggers.SetMinLevel(ldlog.Warn)
			return events.Consume(ctx, &cfg, loggers, func(e events.ChangeEvent) error {
				if len(tables) > 0 && !tables[e.Table] {
					return nil
				}
				return printJSON(cmd, e)
			})
		},
	}
	cmd.Flags().StringVar(&brokers, "brokers", os.Getenv("FPM_KAFKA_BROKERS"), "Comma separated kafka brokers")
	cmd.Flags().StringVar(&cfg.Topic, "topic", os.Getenv("FPM_KAFKA_TOPIC"), "Topic carrying change events")
	cmd.Flags().StringVar(&cfg.GroupID, "group", "", "Consumer group; empty reads without committing offsets")
	return cmd
}
