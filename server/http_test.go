/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/fpmstore/datastore/mock"
	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/signature"
)

const (
	testAppKey    = "123123"
	testMasterKey = "456456"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, skew time.Duration) (*Handler, *mock.DataStore) {
	t.Helper()
	store := mock.New()
	app := NewApp(ldlog.NewDisabledLoggers()).
		AddBizModule(CommonModuleName, NewCommonModule(store)).
		AddBizModule(SystemModuleName, NewSystemModule("9.9.9"))
	h := NewHandler(app, NewKeyStore(map[string]string{testAppKey: testMasterKey}), Options{
		TimestampSkew: skew,
		Version:       "9.9.9",
		Loggers:       ldlog.NewDisabledLoggers(),
		Now:           func() time.Time { return testNow },
	})
	return h, store
}

func signedBody(t *testing.T, method string, ts time.Time, param interface{}) []byte {
	t.Helper()
	e := signature.Envelope{
		AppKey:    testAppKey,
		Method:    method,
		Version:   "0.0.1",
		Timestamp: ts.UnixMilli(),
		Param:     param,
	}
	sign, err := signature.Sign(testMasterKey, e)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]interface{}{
		"method":    e.Method,
		"appkey":    e.AppKey,
		"timestamp": e.Timestamp,
		"v":         e.Version,
		"param":     param,
		"sign":      sign,
	})
	require.NoError(t, err)
	return body
}

type decodedResponse struct {
	Errno     int             `json:"errno"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func post(t *testing.T, h http.Handler, body []byte) (int, decodedResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp decodedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	return rec.Code, resp
}

func TestHandlerRoundTrip(t *testing.T) {
	h, store := newTestHandler(t, 5*time.Minute)

	status, resp := post(t, h, signedBody(t, "common.create", testNow, map[string]interface{}{
		"table": "fake",
		"row":   map[string]interface{}{"name": "c", "value": 100},
	}))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 0, resp.Errno, resp.Message)
	assert.Equal(t, 1, store.Len("fake"))
	assert.Equal(t, testNow.UnixMilli(), resp.Timestamp)

	status, resp = post(t, h, signedBody(t, "common.first", testNow.Add(time.Second), map[string]interface{}{
		"table":     "fake",
		"condition": "name = 'c'",
		"fields":    "id,name",
	}))
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id": 1, "name": "c"}`, string(resp.Data))

	status, resp = post(t, h, signedBody(t, "common.first", testNow.Add(2*time.Second), map[string]interface{}{
		"table":     "fake",
		"condition": "name = 'nobody'",
	}))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(resp.Data))

	status, resp = post(t, h, signedBody(t, "system.ping", testNow, nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, resp.Errno)
}

func TestHandlerBusinessErrors(t *testing.T) {
	h, _ := newTestHandler(t, 0)

	status, resp := post(t, h, signedBody(t, "common.nothing", testNow, nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, errors.ErrnoUnknownMethod, resp.Errno)

	status, resp = post(t, h, signedBody(t, "common.get", testNow, map[string]interface{}{"table": "fake", "id": 1}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, errors.ErrnoNotFound, resp.Errno)
	assert.NotEmpty(t, resp.Message)
}

func TestHandlerAuthentication(t *testing.T) {
	h, _ := newTestHandler(t, time.Minute)
	param := map[string]interface{}{"table": "fake"}

	t.Run("tampered", func(t *testing.T) {
		body := signedBody(t, "common.count", testNow, param)
		body = bytes.Replace(body, []byte(`"fake"`), []byte(`"other"`), 1)
		status, resp := post(t, h, body)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, errors.ErrnoUnauthorized, resp.Errno)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		status, _ := post(t, h, signedBody(t, "common.count", testNow.Add(-2*time.Minute), param))
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("unknown appkey", func(t *testing.T) {
		body := bytes.Replace(signedBody(t, "common.count", testNow, param), []byte(testAppKey), []byte("999"), 1)
		status, _ := post(t, h, body)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("replay", func(t *testing.T) {
		body := signedBody(t, "common.count", testNow.Add(time.Second), param)
		status, _ := post(t, h, body)
		assert.Equal(t, http.StatusOK, status)
		status, _ = post(t, h, body)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("rotated keys", func(t *testing.T) {
		h.keys.Replace(map[string]string{testAppKey: "rotated"})
		defer h.keys.Replace(map[string]string{testAppKey: testMasterKey})
		status, _ := post(t, h, signedBody(t, "common.count", testNow.Add(3*time.Second), param))
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestHandlerMalformed(t *testing.T) {
	h, _ := newTestHandler(t, 0)

	for name, body := range map[string]string{
		"not json":     `{`,
		"no method":    `{"appkey": "123123"}`,
		"param scalar": `{"method": "common.find", "param": 5}`,
	} {
		t.Run(name, func(t *testing.T) {
			status, resp := post(t, h, []byte(body))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, errors.ErrnoInvalidInput, resp.Errno)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandlerHealthAndVersion(t *testing.T) {
	h, _ := newTestHandler(t, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.JSONEq(t, `{"version": "9.9.9"}`, rec.Body.String())
}

func TestServeListener(t *testing.T) {
	h, _ := newTestHandler(t, 0)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeListener(ctx, ln, h, ldlog.NewDisabledLoggers()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
