package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

var (
	errRequestBodyInvalidJSON = func(err string) *Error {
		return NewError("validation.requestBody.invalidJSON", "Request body is not a valid JSON input.", map[string]any{
			"error": err,
		})
	}
	errRequestBodyTooLarge = func(limit int64) *Error {
		return NewError("validation.requestBody.tooLarge", fmt.Sprintf("Request body exceeds the limit of %d bytes.", limit), map[string]any{
			"limit": limit,
		})
	}
	errRequestBodyParameterInvalidType = func(name, expectedType string) *Error {
		return NewError("validation.requestBody.parameter.invalidType", fmt.Sprintf("The request body parameter '%s' could not be assigned to the required type (%s).", name, expectedType), map[string]any{
			"parameter":     name,
			"expected_type": expectedType,
		})
	}
	errRequestBodyParameterMissing = func(name string) *Error {
		return NewError("validation.requestBody.parameter.missing", fmt.Sprintf("The request body parameter '%s' is required but was not present in the request.", name), map[string]any{
			"parameter": name,
		})
	}
	errRequestBodyParameterBlank = func(name string) *Error {
		return NewError("validation.requestBody.parameter.blank", fmt.Sprintf("The request body parameter '%s' must not be blank.", name), map[string]any{
			"parameter": name,
		})
	}
	errRequestBodyParameterNumberOutOfRange = func(name string, value, min, max int64) *Error {
		comparison := ""
		if value < min {
			comparison = fmt.Sprintf("%d [given] < %d [min]", value, min)
		} else if value > max {
			comparison = fmt.Sprintf("%d [given] > %d [max]", value, max)
		}

		return NewError("validation.requestBody.parameter.number.outOfRange", fmt.Sprintf("The request body parameter '%s' is out of the required range (%s).", name, comparison), map[string]any{
			"parameter": name,
			"value":     value,
			"min":       min,
			"max":       max,
		})
	}
)

// UnmarshalBody parses and decodes a JSON request body of at most maxBytes bytes and performs validations on it
func UnmarshalBody[T any](request *http.Request, maxBytes int64) (*T, []*Error, error) {
	body, err := io.ReadAll(io.LimitReader(request.Body, maxBytes+1))
	if err != nil {
		return nil, nil, err
	}
	if int64(len(body)) > maxBytes {
		return nil, []*Error{errRequestBodyTooLarge(maxBytes)}, nil
	}

	target := new(T)
	if err := json.Unmarshal(body, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, []*Error{errRequestBodyParameterInvalidType(typeErr.Field, typeErr.Type.String())}, nil
		}
		return nil, []*Error{errRequestBodyInvalidJSON(err.Error())}, nil
	}

	errs, err := validateStruct("", target)
	if err != nil {
		return nil, nil, err
	}
	return target, errs, nil
}

// fieldRules holds the validation tags of a single struct field
type fieldRules struct {
	required bool
	nonBlank bool
	min      int64
	max      int64
}

func parseFieldRules(def reflect.StructField) fieldRules {
	rules := fieldRules{
		required: strings.EqualFold(def.Tag.Get("required"), "true"),
		nonBlank: strings.EqualFold(def.Tag.Get("nonblank"), "true"),
		min:      math.MinInt64,
		max:      math.MaxInt64,
	}
	if min, err := strconv.ParseInt(def.Tag.Get("min"), 10, 64); err == nil {
		rules.min = min
	}
	if max, err := strconv.ParseInt(def.Tag.Get("max"), 10, 64); err == nil {
		rules.max = max
	}
	return rules
}

func validateStruct(fieldPrefix string, val any) ([]*Error, error) {
	ref := reflect.ValueOf(val)
	if ref.Kind() == reflect.Pointer {
		ref = ref.Elem()
	}
	if ref.Kind() != reflect.Struct {
		return nil, errors.New("illegal call to validateStruct with non-struct parameter")
	}
	typ := ref.Type()

	var errs []*Error
	for i := 0; i < typ.NumField(); i++ {
		fieldDef := typ.Field(i)
		if !fieldDef.IsExported() {
			continue
		}
		rules := parseFieldRules(fieldDef)
		name := fieldPrefix + getFieldName(fieldDef)

		field := ref.Field(i)
		if isNil(field) {
			if rules.required {
				errs = append(errs, errRequestBodyParameterMissing(name))
			}
			continue
		}
		if field.Kind() == reflect.Pointer {
			field = field.Elem()
		}

		subErrs, err := validateValue(name, field, rules)
		if err != nil {
			return nil, err
		}
		errs = append(errs, subErrs...)
	}
	return errs, nil
}

func validateValue(name string, field reflect.Value, rules fieldRules) ([]*Error, error) {
	switch {
	case field.CanUint():
		val := int64(field.Uint())
		if val < rules.min || val > rules.max {
			return []*Error{errRequestBodyParameterNumberOutOfRange(name, val, rules.min, rules.max)}, nil
		}
	case field.CanInt():
		val := field.Int()
		if val < rules.min || val > rules.max {
			return []*Error{errRequestBodyParameterNumberOutOfRange(name, val, rules.min, rules.max)}, nil
		}
	case field.Kind() == reflect.String:
		if rules.nonBlank && strings.TrimSpace(field.String()) == "" {
			return []*Error{errRequestBodyParameterBlank(name)}, nil
		}
	case field.Kind() == reflect.Struct:
		return validateStruct(name+".", field.Interface())
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Struct:
		var errs []*Error
		for i := 0; i < field.Len(); i++ {
			subErrs, err := validateStruct(fmt.Sprintf("%s[%d].", name, i), field.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			errs = append(errs, subErrs...)
		}
		return errs, nil
	}
	return nil, nil
}

func isNil(field reflect.Value) bool {
	switch field.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return field.IsNil()
	default:
		return false
	}
}

func getFieldName(def reflect.StructField) string {
	jsonVal, ok := def.Tag.Lookup("json")
	if !ok || jsonVal == "-" {
		return def.Name
	}
	name, _, _ := strings.Cut(jsonVal, ",")
	return name
}
