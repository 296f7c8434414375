package vector

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/coastal-group/tidegate-cli/internal/errs"
	"github.com/coastal-group/tidegate-cli/internal/raster"
)

// Open reads a shapefile into a Layer. Attribute values are typed from the
// DBF descriptors: character fields stay strings, numeric fields become
// int64 or float64 depending on declared precision. Records whose geometry
// cannot be decoded are skipped.
func Open(path string) (*Layer, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &errs.NotFoundError{Kind: "layer", Name: path}
	}
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	dbfFields := reader.Fields()
	layer := NewLayer(layerName(path), readPrj(path))
	for _, f := range dbfFields {
		layer.Fields = append(layer.Fields, Field{
			Name: fieldName(f),
			Type: fieldType(f),
		})
	}

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		g := ShapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}

		attrs := make(map[string]any, len(layer.Fields))
		for i, f := range layer.Fields {
			raw := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			attrs[f.Name] = parseAttr(raw, f.Type)
		}
		layer.Append(&Feature{Geom: g, Attrs: attrs})
	}

	if skipped > 0 {
		zap.L().Debug("vector: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return layer, nil
}

func layerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fieldName(f shp.Field) string {
	return strings.TrimRight(f.String(), "\x00")
}

func fieldType(f shp.Field) FieldType {
	switch f.Fieldtype {
	case 'N':
		if f.Precision == 0 {
			return FieldInt
		}
		return FieldFloat
	case 'F':
		return FieldFloat
	default:
		return FieldString
	}
}

func parseAttr(raw string, t FieldType) any {
	switch t {
	case FieldInt:
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	case FieldFloat:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return raw
}

func readPrj(path string) string {
	b, err := os.ReadFile(strings.TrimSuffix(path, filepath.Ext(path)) + ".prj")
	if err != nil {
		return ""
	}
	return raster.NormalizeCRS(string(b))
}

// Write persists a layer as a shapefile at path, plus a .prj sidecar when
// the layer carries a spatial reference. The shape type comes from the first
// feature's geometry; empty layers are written as polygon files so the
// output always opens as the documented geometry type.
func Write(path string, l *Layer) error {
	shapeType := shp.ShapeType(shp.POLYGON)
	if len(l.Features) > 0 {
		if _, ok := l.Features[0].Geom.(*geom.Point); ok {
			shapeType = shp.POINT
		}
	}

	writer, err := shp.Create(path, shapeType)
	if err != nil {
		return eris.Wrapf(err, "vector: create shapefile %s", path)
	}

	shpFields := make([]shp.Field, len(l.Fields))
	for i, f := range l.Fields {
		switch f.Type {
		case FieldInt:
			shpFields[i] = shp.NumberField(f.Name, 18)
		case FieldFloat:
			shpFields[i] = shp.FloatField(f.Name, 24, 8)
		default:
			shpFields[i] = shp.StringField(f.Name, 64)
		}
	}
	if err := writer.SetFields(shpFields); err != nil {
		writer.Close()
		return eris.Wrapf(err, "vector: set fields %s", path)
	}

	for n, feat := range l.Features {
		shape := GeomToShape(feat.Geom)
		if shape == nil {
			writer.Close()
			return errs.Configurationf("layer %s: feature %d has unsupported geometry", l.Name, n)
		}
		row := int(writer.Write(shape))
		for i, f := range l.Fields {
			if err := writer.WriteAttribute(row, i, attrValue(feat, f)); err != nil {
				writer.Close()
				return eris.Wrapf(err, "vector: write %s attribute %s", path, f.Name)
			}
		}
	}
	writer.Close()

	if err := placeDbfSidecar(path); err != nil {
		return err
	}

	if l.CRS != "" {
		prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
		if err := os.WriteFile(prj, []byte(l.CRS), 0o644); err != nil {
			return eris.Wrapf(err, "vector: write sidecar %s", prj)
		}
	}

	zap.L().Debug("vector: wrote shapefile",
		zap.String("path", path),
		zap.Int("features", len(l.Features)),
	)
	return nil
}

// placeDbfSidecar renames the attribute table next to the .shp part. The
// shapefile library drops the extension dot when it creates the DBF, so a
// write to z.shp lands the table at zdbf where no reader finds it.
func placeDbfSidecar(path string) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	stray := base + "dbf"
	want := base + ".dbf"
	if stray == want {
		return nil
	}
	if _, err := os.Stat(stray); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "vector: stat %s", stray)
	}
	if err := os.Rename(stray, want); err != nil {
		return eris.Wrapf(err, "vector: place sidecar %s", want)
	}
	return nil
}

// attrValue coerces an attribute to one of the types the DBF writer accepts:
// int, float64, or string.
func attrValue(feat *Feature, f Field) any {
	switch f.Type {
	case FieldInt:
		v, _ := feat.IntAttr(f.Name)
		return int(v)
	case FieldFloat:
		v, _ := feat.FloatAttr(f.Name)
		return v
	default:
		return feat.StringAttr(f.Name)
	}
}
