package appconfiguration

import "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"

// ValueKind declares the Value variant a feature or property is expected
// to produce.
type ValueKind = core.ValueKind

const (
	// KindNumeric covers Value's Int64, UInt64 and Float64 variants.
	KindNumeric = core.KindNumeric
	KindBoolean = core.KindBoolean
	KindString  = core.KindString
)

// ParseValueKind maps the wire representation ("NUMERIC"/"BOOLEAN"/"STRING")
// to a ValueKind.
func ParseValueKind(s string) (ValueKind, error) { return core.ParseValueKind(s) }

// Value is a tagged union over {Int64, UInt64, Float64, Boolean, String}.
// It is the evaluated type returned for any feature or property, and the
// type every entity attribute is supplied as.
type Value = core.Value

// NewInt64Value builds a Value holding a signed 64-bit integer.
func NewInt64Value(v int64) Value { return core.NewInt64Value(v) }

// NewUInt64Value builds a Value holding an unsigned 64-bit integer.
func NewUInt64Value(v uint64) Value { return core.NewUInt64Value(v) }

// NewFloat64Value builds a Value holding a 64-bit float.
func NewFloat64Value(v float64) Value { return core.NewFloat64Value(v) }

// NewBoolValue builds a Value holding a boolean.
func NewBoolValue(v bool) Value { return core.NewBoolValue(v) }

// NewStringValue builds a Value holding a string.
func NewStringValue(v string) Value { return core.NewStringValue(v) }

// ValueFromJSON coerces a raw JSON scalar into a Value of the requested
// ValueKind.
func ValueFromJSON(raw []byte, kind ValueKind) (Value, error) {
	return core.ValueFromJSON(raw, kind)
}

// Entity is the read-only evaluation subject supplied by the caller per
// evaluation. No entity state is stored by this package.
type Entity = core.Entity
