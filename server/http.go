/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/patrickmn/go-cache"

	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/signature"
)

const (
	DefaultPath = "/api"

	maxBodyBytes     = 4 << 20
	defaultReplayTTL = 5 * time.Minute
	requestIDHeader  = "X-Request-Id"
	contentTypeJSON  = "application/json; charset=utf-8"
)

// Request is the signed envelope posted to the API path.
type Request struct {
	Method    string          `json:"method"`
	AppKey    string          `json:"appkey"`
	Timestamp int64           `json:"timestamp"`
	Version   string          `json:"v"`
	Param     json.RawMessage `json:"param,omitempty"`
	Sign      string          `json:"sign"`
}

// Response carries either data or a non-zero errno with a message.
type Response struct {
	Errno     int         `json:"errno"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

type Options struct {
	// Path of the API endpoint, DefaultPath when empty.
	Path string
	// TimestampSkew bounds |now - request timestamp|. Zero disables the check.
	TimestampSkew time.Duration
	Version       string
	Loggers       ldlog.Loggers
	Now           func() time.Time
}

// Handler serves the data API, /health and /version.
type Handler struct {
	app    *App
	keys   *KeyStore
	opts   Options
	replay *cache.Cache
	router *mux.Router
}

func NewHandler(app *App, keys *KeyStore, opts Options) *Handler {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ttl := opts.TimestampSkew * 2
	if ttl <= 0 {
		ttl = defaultReplayTTL
	}
	h := &Handler{
		app:    app,
		keys:   keys,
		opts:   opts,
		replay: cache.New(ttl, ttl/2),
	}

	router := mux.NewRouter()
	router.HandleFunc(opts.Path, h.handleAPI).Methods(http.MethodPost)
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)
	h.router = router
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"version": h.opts.Version})
}

func (h *Handler) handleAPI(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set(requestIDHeader, requestID)

	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.NewValidationError("body", err.Error()))
		return
	}
	if req.Method == "" {
		h.writeError(w, http.StatusBadRequest, errors.NewValidationError("method", "required"))
		return
	}
	param, err := decodeParam(req.Param)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.authenticate(&req); err != nil {
		h.opts.Loggers.Warnf("[%s] rejected %s from %q: %v", requestID, req.Method, req.AppKey, err)
		h.writeError(w, http.StatusUnauthorized, err)
		return
	}

	started := h.opts.Now()
	data, err := h.app.Execute(r.Context(), req.Method, param)
	if err != nil {
		if errors.Errno(err) == errors.ErrnoGeneric {
			h.opts.Loggers.Errorf("[%s] %s failed: %v", requestID, req.Method, err)
		} else {
			h.opts.Loggers.Debugf("[%s] %s: %v", requestID, req.Method, err)
		}
		h.writeError(w, http.StatusOK, err)
		return
	}
	h.opts.Loggers.Debugf("[%s] %s served in %s", requestID, req.Method, h.opts.Now().Sub(started))
	h.writeJSON(w, http.StatusOK, &Response{
		Errno:     errors.ErrnoOK,
		Data:      data,
		Timestamp: h.opts.Now().UnixMilli(),
	})
}

func (h *Handler) authenticate(req *Request) error {
	masterKey, ok := h.keys.MasterKey(req.AppKey)
	if !ok {
		return errors.NewUnauthorizedError(req.AppKey, "unknown appkey")
	}
	if skew := h.opts.TimestampSkew; skew > 0 {
		diff := h.opts.Now().UnixMilli() - req.Timestamp
		if diff < 0 {
			diff = -diff
		}
		if diff > skew.Milliseconds() {
			return errors.NewUnauthorizedError(req.AppKey, "timestamp outside the accepted window")
		}
	}
	e := signature.Envelope{
		AppKey:    req.AppKey,
		Method:    req.Method,
		Version:   req.Version,
		Timestamp: req.Timestamp,
		Param:     req.Param,
	}
	if !signature.Verify(masterKey, e, req.Sign) {
		return errors.NewUnauthorizedError(req.AppKey, "invalid signature")
	}
	if err := h.replay.Add(req.AppKey+":"+req.Sign, struct{}{}, cache.DefaultExpiration); err != nil {
		return errors.NewUnauthorizedError(req.AppKey, "replayed request")
	}
	return nil
}

func decodeParam(raw json.RawMessage) (BizParam, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return BizParam{}, nil
	}
	var param BizParam
	if err := json.Unmarshal(trimmed, &param); err != nil {
		return nil, errors.NewValidationError("param", "must be a JSON object")
	}
	return param, nil
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, &Response{
		Errno:     errors.Errno(err),
		Message:   err.Error(),
		Timestamp: h.opts.Now().UnixMilli(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		h.opts.Loggers.Errorf("failed to encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
