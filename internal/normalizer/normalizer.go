// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package normalizer turns any error that reaches the error stage into an
// *apperror.AppError.
//
// AppErrors pass through after defaults are applied. Every other error is
// classified by its structural shape (see Classify) and mapped to a
// templated AppError. Errors that match no rule become non-operational
// 500s whose message is replaced by apperror.GenericMessage; the raw error
// is kept as Cause for server-side logging.
package normalizer

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/MKhiriev/go-natours/internal/apperror"
)

// Normalize converts err into an AppError. It is total: nil yields nil, and
// every other value yields a non-nil AppError with StatusCode and Status
// set. Normalize never mutates err or the AppError found in its chain;
// applying it to its own output returns an equal value.
func Normalize(err error) *apperror.AppError {
	if err == nil {
		return nil
	}

	src := Classify(err)
	switch src.Kind {
	case KindOperational:
		cp := *src.AppError
		return cp.Defaults()
	case KindTypeConversion:
		return apperror.
			New(fmt.Sprintf("Invalid %s: %s.", src.Path, src.Value), http.StatusBadRequest).
			WithCause(err)
	case KindUniqueness:
		return apperror.
			New(fmt.Sprintf("Duplicate field value: %s. Please use another value!", keyValueName(src.KeyValue)), http.StatusBadRequest).
			WithCause(err)
	case KindUnclassified:
		return apperror.Internal(err)
	default:
		panic(fmt.Sprintf("normalizer: unhandled error kind %d", src.Kind))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
