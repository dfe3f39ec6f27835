/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package server

import (
	"context"
	"time"
)

// SystemModuleName is the module answering liveness and version calls.
const SystemModuleName = "system"

// NewSystemModule provides ping and version.
func NewSystemModule(version string) BizModule {
	return BizModule{
		"ping": func(ctx context.Context, param BizParam) (interface{}, error) {
			return map[string]interface{}{
				"pong":      true,
				"timestamp": time.Now().UnixMilli(),
			}, nil
		},
		"version": func(ctx context.Context, param BizParam) (interface{}, error) {
			return map[string]interface{}{"version": version}, nil
		},
	}
}
