package store

import (
	"cmp"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Op is a comparison operator of a filter condition.
type Op string

const (
	OpEq  Op = "eq"
	OpIn  Op = "in"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// Query parameters with a reserved meaning.
const (
	ParamSort   = "sort"
	ParamFields = "fields"
	ParamPage   = "page"
	ParamLimit  = "limit"
)

// DefaultLimit is the page size used when none is requested.
const DefaultLimit = 100

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidField reports whether name can be used as a document field in
// queries. Only plain identifiers are accepted.
func ValidField(name string) bool {
	return fieldNameRe.MatchString(name)
}

// Condition restricts a list to documents whose Field compares to Values.
type Condition struct {
	Field  string
	Op     Op
	Values []string
}

// SortKey orders a list by Field.
type SortKey struct {
	Field string
	Desc  bool
}

// Filter describes a list query.
type Filter struct {
	Conditions []Condition
	Sort       []SortKey
	Fields     []string
	Page       int
	Limit      int
}

// Offset returns the number of documents skipped before the current page.
// It saturates at math.MaxInt instead of wrapping around.
func (f Filter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// ParseFilter builds a Filter from query parameters:
//
//	difficulty=easy               equality
//	difficulty=easy&difficulty=medium  membership
//	price[gte]=500                range (gt, gte, lt, lte)
//	sort=-price,name              ordering, '-' for descending
//	fields=name,price             projection
//	page=2&limit=10               pagination
//
// Malformed pagination values, a page whose offset does not fit in an int,
// unknown operators and non-numeric range bounds are reported as *CastError.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{Page: 1, Limit: DefaultLimit}

	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		switch key {
		case ParamSort:
			keys, err := parseSort(values[len(values)-1])
			if err != nil {
				return Filter{}, err
			}
			f.Sort = keys
			continue
		case ParamFields:
			fields, err := parseFieldList(ParamFields, values[len(values)-1])
			if err != nil {
				return Filter{}, err
			}
			f.Fields = fields
			continue
		case ParamPage, ParamLimit:
			n, err := strconv.Atoi(values[len(values)-1])
			if err != nil || n < 1 {
				return Filter{}, &CastError{Path: key, Value: values[len(values)-1], Err: err}
			}
			if key == ParamPage {
				f.Page = n
			} else {
				f.Limit = n
			}
			continue
		}

		cond, err := parseCondition(key, values)
		if err != nil {
			return Filter{}, err
		}
		f.Conditions = append(f.Conditions, cond)
	}

	if f.Page-1 > math.MaxInt/f.Limit {
		return Filter{}, &CastError{Path: ParamPage, Value: strconv.Itoa(f.Page)}
	}

	sortConditions(f.Conditions)
	return f, nil
}

func parseCondition(key string, values []string) (Condition, error) {
	field, op := key, OpEq
	if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
		field, op = key[:i], Op(key[i+1:len(key)-1])
	}
	if !ValidField(field) {
		return Condition{}, &CastError{Path: "field", Value: key}
	}

	switch op {
	case OpEq:
		if len(values) > 1 {
			op = OpIn
		}
	case OpGt, OpGte, OpLt, OpLte:
		for _, v := range values {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return Condition{}, &CastError{Path: field, Value: v, Err: err}
			}
		}
	default:
		return Condition{}, &CastError{Path: "operator", Value: string(op)}
	}

	return Condition{Field: field, Op: op, Values: append([]string(nil), values...)}, nil
}

func parseSort(raw string) ([]SortKey, error) {
	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if !ValidField(name) {
			return nil, &CastError{Path: ParamSort, Value: part}
		}
		keys = append(keys, SortKey{Field: name, Desc: desc})
	}
	return keys, nil
}

func parseFieldList(param, raw string) ([]string, error) {
	var fields []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !ValidField(part) {
			return nil, &CastError{Path: param, Value: part}
		}
		fields = append(fields, part)
	}
	return fields, nil
}

// sortConditions orders conditions by field then operator so that map
// iteration order never leaks into generated SQL.
func sortConditions(conds []Condition) {
	slices.SortFunc(conds, func(a, b Condition) int {
		if c := cmp.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		return cmp.Compare(a.Op, b.Op)
	})
}
