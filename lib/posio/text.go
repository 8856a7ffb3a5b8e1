/*package posio reads particle positions from disk and writes order
parameters back out. Positions can come from whitespace-separated text files
or from gotetra sheet files. Order parameters can be written as text or as
zstd-compressed binary files.
*/
package posio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/phil-mansfield/gotetra/render/geom"
)

// TextConfig contains information necessary for parsing position files.
type TextConfig struct {
	Comment     byte   // Character used to start comments.
	SkipLines   int    // Number of lines to skip at the start of the file.
	// Columns of x, y, and z. A negative z column means z = 0.
	Columns     [3]int
	MaxLineSize int    // Largest possible line size.
}

// DefaultTextConfig reads x, y, and z from the first three columns.
var DefaultTextConfig = TextConfig{
	Comment: '#',
	SkipLines: 0,
	Columns: [3]int{ 0, 1, 2 },
	MaxLineSize: 1<<20,
}

// ReadText reads positions from the text file fname. An optional config can
// be provided, otherwise DefaultTextConfig will be used.
func ReadText(fname string, config ...TextConfig) ([]geom.Vec, error) {
	f, err := os.Open(fname)
	if err != nil { return nil, err }
	defer f.Close()

	x, err := ParseText(f, config...)
	if err != nil { return nil, fmt.Errorf("%s: %w", fname, err) }
	return x, nil
}

// ParseText reads positions from rd.
func ParseText(rd io.Reader, config ...TextConfig) ([]geom.Vec, error) {
	c := DefaultTextConfig
	if len(config) > 0 { c = config[0] }

	x := []geom.Vec{ }
	err := parseColumns(rd, c, c.Columns[:], func(vals []float64) {
		x = append(x, geom.Vec{
			float32(vals[0]), float32(vals[1]), float32(vals[2]),
		})
	})
	if err != nil { return nil, err }
	return x, nil
}

// parseColumns calls f on the values of the given columns for every
// non-empty line in rd. Negative columns are read as 0.
func parseColumns(
	rd io.Reader, c TextConfig, cols []int, f func(vals []float64),
) error {
	maxCol := 0
	for _, col := range cols {
		if col > maxCol { maxCol = col }
	}

	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 1<<12), c.MaxLineSize)

	vals := make([]float64, len(cols))
	for line := 1; sc.Scan(); line++ {
		if line <= c.SkipLines { continue }

		text := sc.Text()
		if i := strings.IndexByte(text, c.Comment); i >= 0 { text = text[:i] }
		tok := strings.Fields(text)
		if len(tok) == 0 { continue }

		if len(tok) <= maxCol {
			return fmt.Errorf("line %d has %d columns, but column %d "+
				"is needed", line, len(tok), maxCol)
		}

		for i, col := range cols {
			vals[i] = 0
			if col < 0 { continue }
			v, err := strconv.ParseFloat(tok[col], 64)
			if err != nil {
				return fmt.Errorf("line %d, column %d: could not parse "+
					"'%s' as a number", line, col, tok[col])
			}
			vals[i] = v
		}
		f(vals)
	}

	return sc.Err()
}
