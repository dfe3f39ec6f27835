/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package signature signs and verifies data API envelopes.
//
// The signature is the lowercase hex md5 of the envelope fields and the
// master key, as key=value pairs sorted by key and joined with "&":
//
//	appkey=<appkey>&masterKey=<masterKey>&method=<method>&param=<json>&timestamp=<ms>&v=<version>
//
// param is rendered as compact JSON with object keys sorted, so that both
// sides produce the same text regardless of how the param was built.
package signature

import (
	"bytes"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Envelope holds the signed fields of a request.
type Envelope struct {
	AppKey    string
	Method    string
	Version   string
	Timestamp int64
	Param     interface{}
}

// CanonicalParam renders param as compact JSON with sorted object keys.
// Numbers keep their original text.
func CanonicalParam(param interface{}) (string, error) {
	var raw []byte
	switch p := param.(type) {
	case nil:
		return "{}", nil
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	default:
		b, err := json.Marshal(param)
		if err != nil {
			return "", fmt.Errorf("signature: cannot encode param: %w", err)
		}
		raw = b
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "{}", nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("signature: invalid param: %w", err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("signature: cannot encode param: %w", err)
	}
	return string(b), nil
}

// Sign computes the signature of e with masterKey.
func Sign(masterKey string, e Envelope) (string, error) {
	param, err := CanonicalParam(e.Param)
	if err != nil {
		return "", err
	}
	fields := map[string]string{
		"appkey":    e.AppKey,
		"masterKey": masterKey,
		"method":    e.Method,
		"param":     param,
		"timestamp": strconv.FormatInt(e.Timestamp, 10),
		"v":         e.Version,
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	sum := md5.Sum([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(sum[:]), nil
}

// Verify reports whether sign matches the signature of e.
func Verify(masterKey string, e Envelope, sign string) bool {
	expected, err := Sign(masterKey, e)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(sign))) == 1
}
