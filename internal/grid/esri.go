package grid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ESRI ASCII raster I/O. The format is the six-line header ArcGIS
// exports (ncols, nrows, xllcorner, yllcorner, cellsize, optional
// NODATA_value) followed by nrows lines of samples, north row first,
// which matches this package's row-major layout.

const defaultNoData = -9999.0

// ReadESRI parses an ESRI ASCII raster into a Raster. NODATA cells are
// classified Closed with elevation zero; everything else starts Core.
func ReadESRI(r io.Reader) (*Raster, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)

	var (
		rows, cols         int
		cellsize           = 1.0
		nodata             = defaultNoData
		haveRows, haveCols bool
	)

	// Header lines are "key value"; the sample block starts at the
	// first line whose leading token parses as a number.
	var fields []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		toks := strings.Fields(line)
		if _, err := strconv.ParseFloat(toks[0], 64); err == nil {
			fields = toks
			break
		}
		if len(toks) < 2 {
			return nil, fmt.Errorf("esri: malformed header line %q", line)
		}
		val := toks[1]
		switch strings.ToLower(toks[0]) {
		case "ncols":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("esri: ncols: %w", err)
			}
			cols, haveCols = n, true
		case "nrows":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("esri: nrows: %w", err)
			}
			rows, haveRows = n, true
		case "cellsize":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("esri: cellsize: %w", err)
			}
			cellsize = f
		case "nodata_value":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("esri: NODATA_value: %w", err)
			}
			nodata = f
		case "xllcorner", "yllcorner", "xllcenter", "yllcenter":
			// Georeferencing is irrelevant to the model; skip.
		default:
			return nil, fmt.Errorf("esri: unknown header key %q", toks[0])
		}
	}
	if !haveRows || !haveCols {
		return nil, fmt.Errorf("esri: header missing nrows/ncols")
	}

	elev := make([]float64, 0, rows*cols)
	closed := make([]int, 0)
	consume := func(toks []string) error {
		for _, t := range toks {
			f, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return fmt.Errorf("esri: sample %d: %w", len(elev), err)
			}
			if f == nodata {
				closed = append(closed, len(elev))
				f = 0
			}
			elev = append(elev, f)
		}
		return nil
	}
	if err := consume(fields); err != nil {
		return nil, err
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := consume(strings.Fields(line)); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	g, err := New(rows, cols, cellsize, elev)
	if err != nil {
		return nil, err
	}
	for _, i := range closed {
		g.SetStatus(i, Closed)
	}
	return g, nil
}

// LoadESRI reads an ESRI ASCII raster file.
func LoadESRI(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadESRI(f)
}

// WriteESRI writes a per-node field in ESRI ASCII form using the
// raster's shape and spacing. Closed nodes are written as NODATA.
func WriteESRI(w io.Writer, g *Raster, field []float64) error {
	if len(field) != g.NumNodes() {
		return fmt.Errorf("esri: field has %d samples for %d nodes", len(field), g.NumNodes())
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", g.Cols())
	fmt.Fprintf(bw, "nrows %d\n", g.Rows())
	fmt.Fprintf(bw, "xllcorner 0\n")
	fmt.Fprintf(bw, "yllcorner 0\n")
	fmt.Fprintf(bw, "cellsize %g\n", g.Spacing())
	fmt.Fprintf(bw, "NODATA_value %g\n", defaultNoData)
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			i := r*g.Cols() + c
			if c > 0 {
				bw.WriteByte(' ')
			}
			v := field[i]
			if g.Status(i) == Closed {
				v = defaultNoData
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// SaveESRI writes a per-node field to a file in ESRI ASCII form.
func SaveESRI(path string, g *Raster, field []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteESRI(f, g, field)
}
