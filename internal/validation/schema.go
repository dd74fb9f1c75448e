// Package validation checks submissions before they reach the reindex queue.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/kozaktomas/face-reindex/internal/facematch"
)

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Item is a raw submission as received from a queue or an event.
type Item = map[string]any

// RequiredProperties must be present on every item and hold strings.
var RequiredProperties = []string{"Bucket", "Key", "ExternalImageId", "CollectionId"}

var rekognitionID = regexp.MustCompile(`^[a-zA-Z0-9_.\-:]+$`)

// record is the typed view checked with struct tags once the raw types are right.
type record struct {
	Bucket          string `validate:"required"`
	Key             string `validate:"required"`
	ExternalImageId string `validate:"required,max=255,rekognition_id"`
	CollectionId    string `validate:"required,max=255,rekognition_id"`
}

// NewValidator returns a validator with the custom tags used by the schema check.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("rekognition_id", func(fl validator.FieldLevel) bool {
		return rekognitionID.MatchString(fl.Field().String())
	})
	return v
}

// CheckSchema returns an empty reason when the item has every required property as a
// string, or the reason it does not.
func CheckSchema(v *validator.Validate, item Item) string {
	var missing []string
	for _, prop := range RequiredProperties {
		if _, ok := item[prop]; !ok {
			missing = append(missing, prop)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "Missing required properties: " + strings.Join(missing, ", ")
	}

	for _, prop := range RequiredProperties {
		if _, ok := item[prop].(string); !ok {
			return fmt.Sprintf("Invalid type for property '%s': expected 'str', got '%s'", prop, typeName(item[prop]))
		}
	}

	rec := record{
		Bucket:          item["Bucket"].(string),
		Key:             item["Key"].(string),
		ExternalImageId: item["ExternalImageId"].(string),
		CollectionId:    item["CollectionId"].(string),
	}
	if err := v.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Sprintf("Invalid value for property '%s': failed '%s'", fe.Field(), fe.Tag())
		}
		return err.Error()
	}
	return ""
}

// RequestContext extracts the routing fields of an item that passed CheckSchema.
func RequestContext(item Item) facematch.RequestContext {
	s := func(k string) string {
		v, _ := item[k].(string)
		return v
	}
	return facematch.RequestContext{
		Bucket:          s("Bucket"),
		Key:             s("Key"),
		ExternalImageID: s("ExternalImageId"),
		CollectionID:    s("CollectionId"),
	}
}

// typeName reports a decoded JSON value by the name of the scalar or container kind
// used in rejection reasons.
func typeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case string:
		return "str"
	case interface{ Int64() (int64, error) }:
		if _, err := t.Int64(); err == nil {
			return "int"
		}
		return "float"
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return "int"
		}
		return "float"
	case int, int64:
		return "int"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	}
	return fmt.Sprintf("%T", v)
}
