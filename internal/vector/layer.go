// Package vector models attribute-carrying feature layers (zones, assets,
// flood extents) and moves them to and from shapefiles.
package vector

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"

	"github.com/coastal-group/tidegate-cli/internal/errs"
)

// FieldType enumerates the attribute types a layer can carry.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldFloat
)

// Field is one column of a layer's attribute table.
type Field struct {
	Name string
	Type FieldType
}

// Feature is one record: a geometry plus its attributes.
type Feature struct {
	Geom  geom.T
	Attrs map[string]any
}

// Layer is an ordered set of features sharing one attribute schema.
type Layer struct {
	Name     string
	CRS      string
	Fields   []Field
	Features []*Feature
}

// NewLayer creates an empty layer.
func NewLayer(name, crs string, fields ...Field) *Layer {
	return &Layer{Name: name, CRS: crs, Fields: fields}
}

// FieldIndex returns the schema position of a field, or -1.
func (l *Layer) FieldIndex(name string) int {
	for i, f := range l.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// HasField reports whether the schema carries a field.
func (l *Layer) HasField(name string) bool { return l.FieldIndex(name) >= 0 }

// RequireField fails with NotFoundError when the schema lacks a field.
func (l *Layer) RequireField(name string) error {
	if !l.HasField(name) {
		return &errs.NotFoundError{Kind: "field", Name: name}
	}
	return nil
}

// EnsureField adds a field to the schema, replacing the type of an existing
// field of the same name. Re-running an aggregation with the same output
// field overwrites it rather than stacking duplicates.
func (l *Layer) EnsureField(f Field) {
	if i := l.FieldIndex(f.Name); i >= 0 {
		l.Fields[i] = f
		return
	}
	l.Fields = append(l.Fields, f)
}

// Append adds a feature.
func (l *Layer) Append(f *Feature) { l.Features = append(l.Features, f) }

// StringAttr reads an attribute coerced to string.
func (f *Feature) StringAttr(name string) string {
	v, ok := f.Attrs[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// FloatAttr reads an attribute coerced to float64.
func (f *Feature) FloatAttr(name string) (float64, bool) {
	switch t := f.Attrs[name].(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case string:
		v, err := strconv.ParseFloat(t, 64)
		return v, err == nil
	default:
		return 0, false
	}
}

// IntAttr reads an attribute coerced to int64.
func (f *Feature) IntAttr(name string) (int64, bool) {
	switch t := f.Attrs[name].(type) {
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		v, err := strconv.ParseInt(t, 10, 64)
		return v, err == nil
	default:
		return 0, false
	}
}
