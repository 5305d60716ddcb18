// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package seed

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// decodeExtJSON parses an extended JSON array or object. The top level is
// wrapped in a document because the bson decoder only accepts documents.
func decodeExtJSON(data []byte) (any, error) {
	wrapped := make([]byte, 0, len(data)+12)
	wrapped = append(wrapped, `{"items":`...)
	wrapped = append(wrapped, data...)
	wrapped = append(wrapped, '}')

	var doc bson.M
	if err := bson.UnmarshalExtJSON(wrapped, false, &doc); err != nil {
		return nil, err
	}
	return doc["items"], nil
}

// field returns a value from any of the document shapes the decoder produces
func field(doc any, key string) any {
	switch d := doc.(type) {
	case primitive.M:
		return d[key]
	case map[string]any:
		return d[key]
	case primitive.D:
		for _, e := range d {
			if e.Key == key {
				return e.Value
			}
		}
	}
	return nil
}

// firstField returns the first present value among keys
func firstField(doc any, keys ...string) any {
	for _, k := range keys {
		if v := field(doc, k); v != nil {
			return v
		}
	}
	return nil
}

// keys lists the keys of a document in decode order where available
func keys(doc any) []string {
	switch d := doc.(type) {
	case primitive.D:
		out := make([]string, 0, len(d))
		for _, e := range d {
			out = append(out, e.Key)
		}
		return out
	case primitive.M:
		out := make([]string, 0, len(d))
		for k := range d {
			out = append(out, k)
		}
		return out
	case map[string]any:
		out := make([]string, 0, len(d))
		for k := range d {
			out = append(out, k)
		}
		return out
	}
	return nil
}

func asList(v any) ([]any, error) {
	switch a := v.(type) {
	case primitive.A:
		return []any(a), nil
	case []any:
		return a, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("expected array, got %T", v)
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("non-integral number %v", n)
		}
		return int(n), nil
	case primitive.Decimal128:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, fmt.Errorf("invalid decimal %s", n.String())
		}
		return i, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("unsupported integer type %T", v)
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case primitive.ObjectID:
		return s.Hex()
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case primitive.DateTime:
		return t.Time(), nil
	case time.Time:
		return t, nil
	case int64:
		return time.UnixMilli(t), nil
	case string:
		if t == "" {
			return time.Time{}, nil
		}
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q: %w", t, err)
		}
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("unsupported time type %T", v)
}
