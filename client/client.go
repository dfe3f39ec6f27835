/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/signature"
	"github.com/suparena/fpmstore/storagemodels"
)

const (
	DefaultEndpoint = "http://localhost:9090/api"
	DefaultVersion  = "0.0.1"
	DefaultTimeout  = 30 * time.Second

	maxResponseBytes = 16 << 20
)

// Config selects the server and the credentials of the calling app.
type Config struct {
	AppKey    string
	MasterKey string
	Endpoint  string
	Version   string
	Timeout   time.Duration
	// HTTPClient overrides the pooled client built from Timeout.
	HTTPClient *http.Client
	Loggers    ldlog.Loggers
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		Version:  DefaultVersion,
		Timeout:  DefaultTimeout,
		Loggers:  ldlog.NewDisabledLoggers(),
	}
}

// Client calls the data API. It is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

// New validates cfg and creates a client. Empty Endpoint, Version and
// Timeout fall back to the defaults.
func New(cfg *Config) (*Client, error) {
	c := *cfg
	if c.AppKey == "" || c.MasterKey == "" {
		return nil, errors.NewValidationError("config", "appkey and masterKey are required")
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.NewValidationError("endpoint", fmt.Sprintf("invalid URL %q", c.Endpoint))
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
		hc.Timeout = c.Timeout
	}
	return &Client{cfg: c, http: hc, now: time.Now}, nil
}

type envelope struct {
	Method    string          `json:"method"`
	AppKey    string          `json:"appkey"`
	Timestamp int64           `json:"timestamp"`
	Version   string          `json:"v"`
	Param     json.RawMessage `json:"param"`
	Sign      string          `json:"sign"`
}

type response struct {
	Errno     int             `json:"errno"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Execute signs and posts a call to method and decodes its data into out,
// which may be nil. A non-zero errno is returned as *errors.APIError.
func (c *Client) Execute(ctx context.Context, method string, param interface{}, out interface{}) error {
	canonical, err := signature.CanonicalParam(param)
	if err != nil {
		return err
	}
	env := envelope{
		Method:    method,
		AppKey:    c.cfg.AppKey,
		Timestamp: c.now().UnixMilli(),
		Version:   c.cfg.Version,
		Param:     json.RawMessage(canonical),
	}
	env.Sign, err = signature.Sign(c.cfg.MasterKey, signature.Envelope{
		AppKey:    env.AppKey,
		Method:    env.Method,
		Version:   env.Version,
		Timestamp: env.Timestamp,
		Param:     env.Param,
	})
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("error marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.cfg.Loggers.Debugf("calling %s", method)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: error reading response: %w", method, err)
	}
	var decoded response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
		}
		return fmt.Errorf("%s: invalid response: %w", method, err)
	}
	if decoded.Errno != errors.ErrnoOK {
		c.cfg.Loggers.Debugf("%s returned errno %d: %s", method, decoded.Errno, decoded.Message)
		return errors.NewAPIError(decoded.Errno, decoded.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}
	if out == nil || len(decoded.Data) == 0 || string(decoded.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("%s: cannot decode data: %w", method, err)
	}
	return nil
}

// normalize turns whole JSON numbers of a record back into int64.
func normalize(rec storagemodels.Record) storagemodels.Record {
	for k, v := range rec {
		rec[k] = storagemodels.NormalizeNumber(v)
	}
	return rec
}
