/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/mitchellh/mapstructure"

	"github.com/suparena/fpmstore/errors"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	dateTimeType = reflect.TypeOf(strfmt.DateTime{})
)

func decoderConfig(out interface{}) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       timestampHook,
		Result:           out,
	}
}

// timestampHook fills time.Time and strfmt.DateTime fields from stored
// timestamps or from epoch milliseconds such as createAt.
func timestampHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timeType && to != dateTimeType {
		return data, nil
	}
	var t time.Time
	switch v := data.(type) {
	case int64:
		t = time.UnixMilli(v).UTC()
	case float64:
		t = time.UnixMilli(int64(v)).UTC()
	default:
		parsed, ok := ParseTimestamp(data)
		if !ok {
			return data, nil
		}
		t = parsed
	}
	if to == dateTimeType {
		return strfmt.DateTime(t), nil
	}
	return t, nil
}

// DecodeRecord copies rec into out, a pointer to a struct with json tags.
func DecodeRecord(rec Record, out interface{}) error {
	return decode(map[string]interface{}(rec), out)
}

// DecodeRecords copies rows into out, a pointer to a slice of structs.
func DecodeRecords(rows []Record, out interface{}) error {
	plain := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		plain = append(plain, r)
	}
	return decode(plain, out)
}

func decode(in, out interface{}) error {
	dec, err := mapstructure.NewDecoder(decoderConfig(out))
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return errors.NewValidationError("record", err.Error())
	}
	return nil
}

// EncodeRecord turns a struct into column values keyed by json tag, the
// same shape the struct has on the wire. Null values are left out.
func EncodeRecord(v interface{}) (CommonMap, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewValidationError("row", err.Error())
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.NewValidationError("row", "must encode to a JSON object")
	}
	row := make(CommonMap, len(out))
	for k, val := range out {
		if val == nil {
			continue
		}
		row[k] = NormalizeNumber(val)
	}
	return row, nil
}
