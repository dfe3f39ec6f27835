// Package server implements the fpm data API.
//
// An App dispatches "module.method" calls to business modules. The common
// module offers generic table access over a DataStore; the system module
// answers ping and version. Handler exposes an App over HTTP: clients POST a
// signed envelope
//
//	{"method": "common.first", "appkey": "...", "timestamp": 1700000000000,
//	 "v": "0.0.1", "param": {"table": "fake"}, "sign": "..."}
//
// and receive
//
//	{"errno": 0, "data": {...}, "timestamp": 1700000000123}
//
// Business errors are reported with HTTP 200 and a non-zero errno.
// Authentication failures use 401 and malformed envelopes 400.
package server
