// Package validate implements the dispatch engine's declarative rule
// engine: a map of attribute name to comma-separated rule tokens,
// applied to a decoded JSON value to produce a per-attribute error
// list.
package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Errors maps an attribute name to its accumulated messages, in the
// order they were recorded.
type Errors map[string][]string

func (e Errors) insert(attribute, message string) {
	e[attribute] = append(e[attribute], message)
}

// Validate iterates rules in lexicographic key order. The special "*"
// attribute's is_object token, when its condition fails, records an
// error and breaks the entire pass immediately; every other rule only
// breaks the remaining tokens of its own attribute.
func Validate(rules map[string]string, root any) (Errors, bool) {
	errs := Errors{}

	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rootObj, isObject := root.(map[string]any)

	for _, attribute := range keys {
		expr := rules[attribute]

		if attribute == "*" {
			if strings.Contains(expr, "is_object") && !isObject {
				errs.insert(attribute, "Message must be an JSON object.")
				return errs, false
			}
			continue
		}

		perAttribute(errs, rootObj, isObject, attribute, expr)
	}

	return errs, len(errs) == 0
}

// perAttribute applies every token of expr to attribute. A missing
// non-nullable attribute records the required-message and skips the
// remaining tokens for that attribute only; it never affects other
// attributes.
func perAttribute(errs Errors, rootObj map[string]any, isObject bool, attribute, expr string) {
	tokens := strings.Split(expr, ",")

	val, present := rootObj[attribute]
	if !isObject {
		present = false
	}

	if !present {
		for _, raw := range tokens {
			if strings.TrimSpace(raw) == "nullable" {
				return
			}
		}
		errs.insert(attribute, fmt.Sprintf("Attribute %s is required.", attribute))
		return
	}

	for _, raw := range tokens {
		rule := strings.TrimSpace(raw)

		switch rule {
		case "is_string":
			onString(errs, val, attribute)
		case "is_uuid":
			onUUID(errs, val, attribute)
		case "confirmed":
			onConfirmed(errs, rootObj, val, attribute)
		case "is_object":
			onObject(errs, val, attribute)
		case "is_number":
			onNumber(errs, val, attribute)
		case "is_array_of_strings":
			onArrayOfStrings(errs, val, attribute)
		case "nullable":
			// presence already checked; no further constraint
		}
	}
}

func onString(errs Errors, val any, attribute string) {
	if _, ok := val.(string); !ok {
		errs.insert(attribute, fmt.Sprintf("Attribute %s must be string.", attribute))
	}
}

func onUUID(errs Errors, val any, attribute string) {
	s, ok := val.(string)
	if !ok {
		errs.insert(attribute, fmt.Sprintf("Attribute %s must be string.", attribute))
		return
	}
	if _, err := uuid.Parse(s); err != nil {
		errs.insert(attribute, fmt.Sprintf("Attribute %s must be uuid.", attribute))
	}
}

func onObject(errs Errors, val any, attribute string) {
	if _, ok := val.(map[string]any); !ok {
		errs.insert(attribute, fmt.Sprintf("Attribute %s must be an object.", attribute))
	}
}

func onNumber(errs Errors, val any, attribute string) {
	f, ok := val.(float64)
	if !ok || f != math.Trunc(f) {
		errs.insert(attribute, fmt.Sprintf("Attribute %s must be a number.", attribute))
	}
}

func onArrayOfStrings(errs Errors, val any, attribute string) {
	arr, ok := val.([]any)
	if !ok {
		errs.insert(attribute, fmt.Sprintf("Attribute %s must be an array.", attribute))
		return
	}
	if len(arr) == 0 {
		errs.insert(attribute, fmt.Sprintf("Attribute %s cannot be empty.", attribute))
		return
	}
	for i, el := range arr {
		if _, ok := el.(string); !ok {
			errs.insert(attribute, fmt.Sprintf("Attribute %s at position %d must be string.", attribute, i))
		}
	}
}

func onConfirmed(errs Errors, rootObj map[string]any, val any, attribute string) {
	confirmation, ok := rootObj[attribute+"_confirmation"]
	if !ok {
		errs.insert(attribute, fmt.Sprintf("Attribute %s_confirmation must be present.", attribute))
		return
	}
	confirmStr, ok := confirmation.(string)
	if !ok {
		errs.insert(attribute, fmt.Sprintf("Attribute %s_confirmation must be string.", attribute))
		return
	}
	valStr, _ := val.(string)
	if valStr != confirmStr {
		errs.insert(attribute, fmt.Sprintf("Attribute %s and %s_confirmation must be equals.", attribute, attribute))
	}
}
