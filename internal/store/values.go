package store

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strconv"
)

// textOf renders a document value the way Postgres' ->> operator renders a
// jsonb scalar, so both stores compare equality on the same text.
func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func numberOf(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// compareValues orders missing values first, then numbers, then text.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	an, aNum := numberOf(a)
	bn, bNum := numberOf(b)
	_, aStr := a.(string)
	_, bStr := b.(string)
	if aNum && bNum && !aStr && !bStr {
		return cmp.Compare(an, bn)
	}
	return cmp.Compare(textOf(a), textOf(b))
}

// matches reports whether doc satisfies cond.
func matches(doc map[string]any, cond Condition) bool {
	v, ok := doc[cond.Field]
	if !ok {
		return false
	}

	switch cond.Op {
	case OpEq, OpIn:
		text := textOf(v)
		for _, want := range cond.Values {
			if text == want {
				return true
			}
		}
		return false
	default:
		n, ok := numberOf(v)
		if !ok {
			return false
		}
		for _, raw := range cond.Values {
			bound, _ := strconv.ParseFloat(raw, 64)
			if !compareOp(cond.Op, n, bound) {
				return false
			}
		}
		return true
	}
}

func compareOp(op Op, v, bound float64) bool {
	switch op {
	case OpGt:
		return v > bound
	case OpGte:
		return v >= bound
	case OpLt:
		return v < bound
	case OpLte:
		return v <= bound
	default:
		return false
	}
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, &CastError{Path: "id", Value: id, Err: err}
	}
	return n, nil
}
