// Package report renders a merged flood layer as an XLSX summary workbook:
// one sheet, a header row, one row per zone-elevation record.
package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/coastal-group/tidegate-cli/internal/errs"
	"github.com/coastal-group/tidegate-cli/internal/vector"
)

// SheetName of the summary sheet.
const SheetName = "flood_summary"

// Write renders the layer's attribute table at path, columns in schema order.
func Write(path string, l *vector.Layer) error {
	if len(l.Fields) == 0 {
		return errs.Configurationf("report: layer %s has no attribute fields", l.Name)
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, fld := range l.Fields {
		header.AddCell().SetString(fld.Name)
	}

	for _, feat := range l.Features {
		row := sheet.AddRow()
		for _, fld := range l.Fields {
			cell := row.AddCell()
			switch fld.Type {
			case vector.FieldInt:
				v, _ := feat.IntAttr(fld.Name)
				cell.SetInt64(v)
			case vector.FieldFloat:
				v, _ := feat.FloatAttr(fld.Name)
				cell.SetFloat(v)
			default:
				cell.SetString(feat.StringAttr(fld.Name))
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}
