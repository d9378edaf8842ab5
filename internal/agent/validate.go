package agent

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validation is the outcome of Validate. Exactly one of Value or Error is set.
type Validation struct {
	OK    bool
	Value *Request
	Field string
	Error string
}

// Validate checks an untyped payload (usually a decoded JSON body) against the
// agent's schema. It has no side effects and reports every problem through the
// returned Validation.
func Validate(def *Definition, payload any) Validation {
	obj, ok := asObject(payload)
	if !ok {
		return invalid("", "request body must be a JSON object")
	}

	// Only declared fields are validated and kept. JSON null counts as absent.
	known := make(map[string]any, len(def.Required)+len(def.Optional))
	for _, f := range append(append([]string{}, def.Required...), def.Optional...) {
		if v, present := obj[f]; present && v != nil {
			known[f] = v
		}
	}

	res, err := def.schema.Validate(gojsonschema.NewGoLoader(known))
	if err != nil {
		return invalid("", "request body could not be validated")
	}
	if !res.Valid() {
		return firstSchemaError(def, res.Errors())
	}

	fields := make(Fields, len(known))
	for _, f := range def.Required {
		v := trim(known[f].(string))
		if v == "" {
			return invalid(f, fmt.Sprintf("%s must not be empty", f))
		}
		fields[f] = v
	}
	for _, f := range def.Optional {
		if v, present := known[f]; present {
			fields[f] = v.(string)
		}
	}

	return Validation{OK: true, Value: &Request{Agent: def.Name, Fields: fields}}
}

func asObject(payload any) (map[string]any, bool) {
	switch p := payload.(type) {
	case map[string]any:
		return p, p != nil
	case map[string]string:
		obj := make(map[string]any, len(p))
		for k, v := range p {
			obj[k] = v
		}
		return obj, p != nil
	case Fields:
		return asObject(map[string]string(p))
	default:
		return nil, false
	}
}

func firstSchemaError(def *Definition, errs []gojsonschema.ResultError) Validation {
	var (
		best      gojsonschema.ResultError
		bestField string
		bestOrder = -1
	)
	for _, e := range errs {
		field := e.Field()
		if e.Type() == "required" {
			field = fmt.Sprint(e.Details()["property"])
		}
		order := def.fieldOrder(field)
		if bestOrder < 0 || order < bestOrder {
			best, bestField, bestOrder = e, field, order
		}
	}
	if best == nil {
		return invalid("", "request body is invalid")
	}

	switch best.Type() {
	case "required":
		return invalid(bestField, fmt.Sprintf("%s is required", bestField))
	case "invalid_type":
		return invalid(bestField, fmt.Sprintf("%s must be a string", bestField))
	case "string_gte":
		return invalid(bestField, fmt.Sprintf("%s must not be empty", bestField))
	case "enum":
		return invalid(bestField, fmt.Sprintf("%s must be one of: %s", bestField, strings.Join(def.Enums[bestField], ", ")))
	default:
		return invalid(bestField, fmt.Sprintf("%s: %s", bestField, best.Description()))
	}
}

func invalid(field, msg string) Validation {
	return Validation{Field: field, Error: msg}
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
