package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

// Kind enumerates every error source the normalizer knows how to handle.
// The set is closed: anything not recognised is KindUnclassified.
type Kind int

const (
	// KindOperational is an AppError raised by a handler or filter.
	KindOperational Kind = iota
	// KindTypeConversion is a lookup key or value that failed to convert.
	KindTypeConversion
	// KindUniqueness is a uniqueness-constraint violation.
	KindUniqueness
	// KindUnclassified is everything else.
	KindUnclassified
)

func (k Kind) String() string {
	switch k {
	case KindOperational:
		return "operational"
	case KindTypeConversion:
		return "type_conversion"
	case KindUniqueness:
		return "uniqueness"
	default:
		return "unclassified"
	}
}

// Source is the result of classifying a raw error. Only the fields relevant
// to Kind are populated; Err is always the original error, untouched.
type Source struct {
	Kind Kind

	// AppError is set for KindOperational.
	AppError *apperror.AppError

	// Path and Value are set for KindTypeConversion.
	Path  string
	Value string

	// KeyValue is set for KindUniqueness.
	KeyValue map[string]any

	Err error
}

// rule recognises one structural error shape.
type rule struct {
	kind  Kind
	match func(err error) (Source, bool)
}

// rules are tried in this order; the first match wins.
var rules = []rule{
	{kind: KindOperational, match: matchAppError},
	{kind: KindTypeConversion, match: matchCastError},
	{kind: KindTypeConversion, match: matchPgInvalidText},
	{kind: KindUniqueness, match: matchDuplicateKeyError},
	{kind: KindUniqueness, match: matchPgUniqueViolation},
	{kind: KindUniqueness, match: matchMongoDuplicateKey},
}

// Classify maps err onto the closed set of sources. It never mutates err.
func Classify(err error) Source {
	for _, r := range rules {
		if src, ok := r.match(err); ok {
			src.Kind = r.kind
			src.Err = err
			return src
		}
	}
	return Source{Kind: KindUnclassified, Err: err}
}

func matchAppError(err error) (Source, bool) {
	ae := apperror.As(err)
	if ae == nil {
		return Source{}, false
	}
	return Source{AppError: ae}, true
}

func matchCastError(err error) (Source, bool) {
	var ce *store.CastError
	if !errors.As(err, &ce) {
		return Source{}, false
	}
	return Source{Path: ce.Path, Value: ce.Value}, true
}

var pgInvalidInputRe = regexp.MustCompile(`invalid input syntax for type \w+: "(.*)"`)

// matchPgInvalidText recognises 22P02, raised by Postgres when an identifier
// like "abc" is compared against a bigint column.
func matchPgInvalidText(err error) (Source, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.InvalidTextRepresentation {
		return Source{}, false
	}

	path := pgErr.ColumnName
	if path == "" {
		path = "id"
	}
	value := ""
	if m := pgInvalidInputRe.FindStringSubmatch(pgErr.Message); m != nil {
		value = m[1]
	}
	return Source{Path: path, Value: value}, true
}

func matchDuplicateKeyError(err error) (Source, bool) {
	var de *store.DuplicateKeyError
	if !errors.As(err, &de) {
		return Source{}, false
	}
	return Source{KeyValue: copyKeyValue(de.KeyValue)}, true
}

var pgKeyDetailRe = regexp.MustCompile(`Key \((.+)\)=\((.+)\) already exists`)

func matchPgUniqueViolation(err error) (Source, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return Source{}, false
	}

	kv := make(map[string]any)
	if m := pgKeyDetailRe.FindStringSubmatch(pgErr.Detail); m != nil {
		columns := strings.Split(m[1], ", ")
		values := strings.Split(m[2], ", ")
		for i, col := range columns {
			if i < len(values) {
				kv[col] = values[i]
			}
		}
	}
	return Source{KeyValue: kv}, true
}

var mongoDupKeyRe = regexp.MustCompile(`dup key: \{ (\w+): "(.*)" \}`)

// matchMongoDuplicateKey recognises E11000 from the mongo driver. keyValue
// is taken from the raw server reply when present, from errmsg otherwise.
func matchMongoDuplicateKey(err error) (Source, bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return Source{}, false
	}

	kv := make(map[string]any)
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, writeErr := range we.WriteErrors {
			if !isDuplicateCode(writeErr.Code) {
				continue
			}
			if doc, ok := writeErr.Raw.Lookup("keyValue").DocumentOK(); ok {
				if elems, elemsErr := doc.Elements(); elemsErr == nil {
					for _, el := range elems {
						kv[el.Key()] = rawString(el.Value().String(), el.Value().StringValueOK)
					}
				}
			}
			if len(kv) == 0 {
				parseMongoMessage(writeErr.Message, kv)
			}
			break
		}
	}
	if len(kv) == 0 {
		parseMongoMessage(err.Error(), kv)
	}
	return Source{KeyValue: kv}, true
}

func isDuplicateCode(code int) bool {
	return code == 11000 || code == 11001 || code == 12582
}

func parseMongoMessage(msg string, kv map[string]any) {
	if m := mongoDupKeyRe.FindStringSubmatch(msg); m != nil {
		kv[m[1]] = m[2]
	}
}

func rawString(fallback string, ok func() (string, bool)) string {
	if s, isString := ok(); isString {
		return s
	}
	return fallback
}

func copyKeyValue(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// keyValueName picks the value reported for "name", falling back to the
// first value in key order when the violated key is a different field.
func keyValueName(kv map[string]any) string {
	if v, ok := kv["name"]; ok {
		return fmt.Sprint(v)
	}
	for _, k := range sortedKeys(kv) {
		return fmt.Sprint(kv[k])
	}
	return ""
}
