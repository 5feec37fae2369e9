package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// Data layer contract shared with the paired producer. These strings are
// matched verbatim on both ends.
const (
	DataPath = "/WEATHER_DATA_PATH"
	KeyID    = "WEATHER_DATA_ID"
	KeyHigh  = "WEATHER_DATA_HIGH"
	KeyLow   = "WEATHER_DATA_LOW"
)

// ErrDecode is returned for payloads missing a field or carrying the wrong type.
var ErrDecode = errors.New("malformed weather payload")

var validate = validator.New()

// Payload encodes a reading as the data map published at DataPath.
func Payload(r Reading) map[string]any {
	return map[string]any{
		KeyHigh: r.High,
		KeyLow:  r.Low,
		KeyID:   int64(r.ConditionID),
	}
}

type payloadFields struct {
	High *float64 `validate:"required"`
	Low  *float64 `validate:"required"`
	ID   *int64   `validate:"required"`
}

// DecodePayload reads the three weather fields out of a data map.
func DecodePayload(data map[string]any) (Reading, error) {
	var fields payloadFields
	if v, ok := asFloat(data[KeyHigh]); ok {
		fields.High = &v
	}
	if v, ok := asFloat(data[KeyLow]); ok {
		fields.Low = &v
	}
	if v, ok := asInt(data[KeyID]); ok {
		fields.ID = &v
	}

	if err := validate.Struct(fields); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if *fields.ID < math.MinInt32 || *fields.ID > math.MaxInt32 {
		return Reading{}, fmt.Errorf("%w: id %d out of range", ErrDecode, *fields.ID)
	}
	for _, temp := range []float64{*fields.High, *fields.Low} {
		if temp < math.MinInt32 || temp > math.MaxInt32 {
			return Reading{}, fmt.Errorf("%w: temperature %g out of range", ErrDecode, temp)
		}
	}

	return Reading{
		High:        *fields.High,
		Low:         *fields.Low,
		ConditionID: int(*fields.ID),
	}, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return asFloat(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return asFloat(f)
	default:
		return 0, false
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		// JSON transports carry every number as float64.
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return asInt(f)
	default:
		return 0, false
	}
}
