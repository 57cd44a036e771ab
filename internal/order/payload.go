package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidJSON = errors.New("invalid JSON")
	ErrNotObject   = errors.New("request body must be an object")
)

// Payload is an order event. Fields hold the raw decoded JSON values; any of
// them may be nil.
type Payload struct {
	OrderID any
	Name    any
	Total   any
}

// Parse decodes a request body. An empty body is an empty object.
func Parse(body []byte) (Payload, error) {
	if len(body) == 0 {
		return Payload{}, nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return Payload{}, ErrNotObject
	}

	return Payload{
		OrderID: obj["orderId"],
		Name:    obj["name"],
		Total:   obj["total"],
	}, nil
}

// HasOrderID reports whether the order id is present and truthy.
func (p Payload) HasOrderID() bool { return truthy(p.OrderID) }

// HasName reports whether the name is present and truthy.
func (p Payload) HasName() bool { return truthy(p.Name) }

// HasTotal reports whether the total is present and truthy.
func (p Payload) HasTotal() bool { return truthy(p.Total) }

// truthy follows scripting-language semantics: null, false, 0, NaN and ""
// are false; every object and array is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

// display renders v as text, or fallback when v is falsy.
func display(v any, fallback string) string {
	if !truthy(v) {
		return fallback
	}
	return stringify(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatNumber(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return fmt.Sprint(t)
	}
}

// formatNumber prints the shortest round-tripping form, switching to
// exponent notation outside [1e-7, 1e21).
func formatNumber(f float64) string {
	if f == 0 {
		// Covers negative zero.
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-7 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + sign + digits
}
