package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/coastal-group/tidegate-cli/internal/errs"
)

// ReadASCII loads an ESRI ASCII grid from path. maxBytes caps the sample
// buffer allocation; pass 0 for no cap. The header keywords (ncols, nrows,
// xllcorner, yllcorner, cellsize, nodata_value) are case-insensitive and
// nodata_value is optional, defaulting to -9999.
func ReadASCII(path string, maxBytes int64) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errs.NotFoundError{Kind: "raster", Name: path}
		}
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<16), 1<<22)

	g := &Grid{NoData: -9999}
	header := map[string]bool{}
	var tokens []string

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		key := strings.ToLower(fields[0])
		if len(fields) == 2 && isHeaderKey(key) {
			val, perr := strconv.ParseFloat(fields[1], 64)
			if perr != nil {
				return nil, errs.Configurationf("raster %s: bad header value %s=%s", path, key, fields[1])
			}
			switch key {
			case "ncols":
				g.Cols = int(val)
			case "nrows":
				g.Rows = int(val)
			case "xllcorner":
				g.XLL = val
			case "yllcorner":
				g.YLL = val
			case "cellsize":
				g.CellSize = val
			case "nodata_value":
				g.NoData = val
			}
			header[key] = true
			continue
		}
		tokens = append(tokens, fields...)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "raster: scan %s", path)
	}

	for _, req := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if !header[req] {
			return nil, errs.Configurationf("raster %s: missing header %s", path, req)
		}
	}
	if g.Cols <= 0 || g.Rows <= 0 || g.CellSize <= 0 {
		return nil, errs.Configurationf("raster %s: invalid dimensions %dx%d cell %v", path, g.Cols, g.Rows, g.CellSize)
	}

	need := int64(g.Cols) * int64(g.Rows) * 8
	if maxBytes > 0 && need > maxBytes {
		return nil, &errs.ResourceExhaustionError{Op: "raster: read samples", Need: need, Cap: maxBytes}
	}

	want := g.Cols * g.Rows
	if len(tokens) != want {
		return nil, errs.Configurationf("raster %s: %d samples, header promises %d", path, len(tokens), want)
	}

	g.Data = make([]float64, want)
	for i, tok := range tokens {
		v, perr := strconv.ParseFloat(tok, 64)
		if perr != nil {
			return nil, errs.Configurationf("raster %s: bad sample %q at index %d", path, tok, i)
		}
		g.Data[i] = v
	}

	g.CRS = readPrj(path)
	zap.L().Debug("raster: loaded grid",
		zap.String("path", path),
		zap.Int("cols", g.Cols),
		zap.Int("rows", g.Rows),
		zap.Float64("cellsize", g.CellSize),
	)
	return g, nil
}

func isHeaderKey(k string) bool {
	switch k {
	case "ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value":
		return true
	}
	return false
}

// WriteASCII writes the grid to path in ESRI ASCII format, plus a .prj
// sidecar when the grid carries a spatial reference.
func WriteASCII(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", path)
	}
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "ncols %d\n", g.Cols)
	fmt.Fprintf(w, "nrows %d\n", g.Rows)
	fmt.Fprintf(w, "xllcorner %s\n", strconv.FormatFloat(g.XLL, 'f', -1, 64))
	fmt.Fprintf(w, "yllcorner %s\n", strconv.FormatFloat(g.YLL, 'f', -1, 64))
	fmt.Fprintf(w, "cellsize %s\n", strconv.FormatFloat(g.CellSize, 'f', -1, 64))
	fmt.Fprintf(w, "nodata_value %s\n", strconv.FormatFloat(g.NoData, 'f', -1, 64))

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if c > 0 {
				if err := w.WriteByte(' '); err != nil {
					_ = f.Close()
					return eris.Wrapf(err, "raster: write %s", path)
				}
			}
			if _, err := w.WriteString(strconv.FormatFloat(g.At(r, c), 'f', -1, 64)); err != nil {
				_ = f.Close()
				return eris.Wrapf(err, "raster: write %s", path)
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			_ = f.Close()
			return eris.Wrapf(err, "raster: write %s", path)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "raster: flush %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "raster: close %s", path)
	}

	if g.CRS != "" {
		prj := strings.TrimSuffix(path, ".asc") + ".prj"
		if err := os.WriteFile(prj, []byte(g.CRS), 0o644); err != nil {
			return eris.Wrapf(err, "raster: write sidecar %s", prj)
		}
	}
	return nil
}
