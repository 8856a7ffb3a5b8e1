/*package config reads hexatic's run configuration files. Two encodings are
supported: gcfg (.ini-style) files, where everything lives in a [hexatic]
section, and TOML files (recognized by a ".toml" extension), where
everything lives in a [hexatic] table. ExampleConfig shows every variable.
*/
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/hexatic/lib/box"
	"github.com/phil-mansfield/hexatic/lib/format"
	"github.com/phil-mansfield/hexatic/lib/neighbor"
	"github.com/phil-mansfield/hexatic/lib/order"
)

// Config holds the contents of a configuration file. Fields are case
// insensitive in gcfg files and use the toml tag names in TOML files.
type Config struct {
	RMax           float64 `toml:"rmax"`
	K              float64 `toml:"k"`
	Neighbors      int     `toml:"neighbors"`
	NeighborMethod string  `toml:"neighbor_method"`
	Threads        int     `toml:"threads"`

	Lx   float64 `toml:"lx"`
	Ly   float64 `toml:"ly"`
	Lz   float64 `toml:"lz"`
	XY   float64 `toml:"xy"`
	XZ   float64 `toml:"xz"`
	YZ   float64 `toml:"yz"`
	Is2D bool    `toml:"is_2d"`

	Frames       string `toml:"frames"`
	Input        string `toml:"input"`
	InputFormat  string `toml:"input_format"`
	HeaderLines  int    `toml:"header_lines"`
	Columns      string `toml:"columns"`
	Output       string `toml:"output"`
	OutputFormat string `toml:"output_format"`
	Summary      string `toml:"summary"`
	LogLevel     string `toml:"log_level"`
}

// file is the layout of a whole config file.
type file struct {
	Hexatic Config `toml:"hexatic"`
}

// Read reads the config file fname. Missing variables are given their
// default values, but nothing is checked: call Check for that.
func Read(fname string) (*Config, error) {
	f := &file{ }
	if strings.ToLower(filepath.Ext(fname)) == ".toml" {
		fp, err := os.Open(fname)
		if err != nil { return nil, err }
		defer fp.Close()

		if err := toml.NewDecoder(fp).Decode(f); err != nil {
			return nil, fmt.Errorf("could not parse TOML config file '%s': %w",
				fname, err)
		}
	} else {
		if err := gcfg.ReadFileInto(f, fname); err != nil {
			return nil, fmt.Errorf("could not parse config file '%s': %w",
				fname, err)
		}
	}

	c := &f.Hexatic
	c.setDefaults()
	return c, nil
}

// ParseString parses the text of a gcfg config file.
func ParseString(text string) (*Config, error) {
	f := &file{ }
	if err := gcfg.ReadStringInto(f, text); err != nil { return nil, err }
	c := &f.Hexatic
	c.setDefaults()
	return c, nil
}

// ParseTOML parses the text of a TOML config file.
func ParseTOML(text string) (*Config, error) {
	f := &file{ }
	if err := toml.Unmarshal([]byte(text), f); err != nil { return nil, err }
	c := &f.Hexatic
	c.setDefaults()
	return c, nil
}

// setDefaults fills in every unset variable that has a default.
func (c *Config) setDefaults() {
	if c.K == 0 { c.K = order.DefaultK }
	if c.Neighbors == 0 { c.Neighbors = int(math.Round(c.K)) }
	if c.NeighborMethod == "" { c.NeighborMethod = "cell" }
	if c.Frames == "" { c.Frames = "0" }
	if c.InputFormat == "" { c.InputFormat = "text" }
	if c.Columns == "" { c.Columns = "0, 1, 2" }
	if c.OutputFormat == "" { c.OutputFormat = "text" }
	if c.LogLevel == "" { c.LogLevel = "info" }
}

// Check returns an error describing every problem with c, or nil if there
// are none.
func (c *Config) Check() error {
	errs := []string{ }
	add := func(format string, a ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, a...))
	}

	if !(c.RMax > 0) { add("RMax must be set to a positive value.") }
	if !(c.K > 0) { add("K must be positive, but is %g.", c.K) }
	if c.Neighbors <= 0 {
		add("Neighbors must be positive, but is %d.", c.Neighbors)
	}
	if _, err := neighbor.ParseMethod(c.NeighborMethod); err != nil {
		add(err.Error())
	}

	if c.Input == "" { add("Input must be set.") }
	if c.Output == "" { add("Output must be set.") }
	for _, v := range []struct{ name, val string }{
		{"Input", c.Input}, {"Output", c.Output},
	} {
		if v.val == "" { continue }
		if _, err := format.ParseFileFormat(v.val); err != nil {
			add("%s is invalid. %s", v.name, err.Error())
		}
	}
	if _, err := format.ExpandSequenceFormat(c.Frames); err != nil {
		add("Frames = '%s' is invalid. %s", c.Frames, err.Error())
	}

	switch c.InputFormat {
	case "text":
		if _, err := c.Box(); err != nil { add(err.Error()) }
		if _, err := c.ColumnIndices(); err != nil { add(err.Error()) }
		if c.HeaderLines < 0 {
			add("HeaderLines must be non-negative, but is %d.", c.HeaderLines)
		}
	case "sheet":
		if c.Lx > 0 {
			if _, err := c.Box(); err != nil { add(err.Error()) }
		}
	default:
		add("InputFormat = '%s' is invalid. Valid formats are 'text' "+
			"and 'sheet'.", c.InputFormat)
	}

	if c.OutputFormat != "text" && c.OutputFormat != "zstd" {
		add("OutputFormat = '%s' is invalid. Valid formats are 'text' "+
			"and 'zstd'.", c.OutputFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		add("LogLevel = '%s' is invalid.", c.LogLevel)
	}

	if len(errs) == 0 { return nil }
	return fmt.Errorf("%d problem(s) with the config file:\n  %s",
		len(errs), strings.Join(errs, "\n  "))
}

// Box returns the box described by Lx, Ly, Lz, XY, XZ, YZ, and Is2D.
func (c *Config) Box() (box.Box, error) {
	return box.New(c.Lx, c.Ly, c.Lz, c.XY, c.XZ, c.YZ, c.Is2D)
}

// HasBox returns true if the config file gives a box. Sheet files carry their
// own box, which is used otherwise.
func (c *Config) HasBox() bool { return c.InputFormat == "text" || c.Lx > 0 }

// Method returns the neighbor method, which must have passed Check.
func (c *Config) Method() neighbor.Method {
	m, _ := neighbor.ParseMethod(c.NeighborMethod)
	return m
}

// HexConfig returns the parameters of the order parameter engine.
func (c *Config) HexConfig() order.HexConfig {
	return order.HexConfig{
		RMax: c.RMax, K: c.K, Neighbors: c.Neighbors,
		Method: c.Method(), Workers: c.Threads,
	}
}

// FrameList expands Frames.
func (c *Config) FrameList() ([]int, error) {
	return format.ExpandSequenceFormat(c.Frames)
}

// ColumnIndices parses Columns, the comma-separated x, y, and z columns of
// text input files. A z column of -1 sets z = 0.
func (c *Config) ColumnIndices() ([3]int, error) {
	out := [3]int{ }
	tok := strings.Split(c.Columns, ",")
	if len(tok) != 3 {
		return out, fmt.Errorf("Columns = '%s' must contain exactly three "+
			"comma-separated columns.", c.Columns)
	}
	for i := range tok {
		n, err := strconv.Atoi(strings.TrimSpace(tok[i]))
		if err != nil || n < -1 || (n < 0 && i < 2) {
			return out, fmt.Errorf("Columns = '%s' contains '%s', which isn't "+
				"a valid column index.", c.Columns, tok[i])
		}
		out[i] = n
	}
	return out, nil
}

// ExampleConfig is a documented example gcfg config file.
const ExampleConfig = `[hexatic]

#######################
## Required Variables ##
#######################

# Starting radius of the neighbor search. Must be smaller than half of the
# box's Lx, Ly, and (for 3D boxes) Lz.
RMax = 1.5

# Input and output file formats. {%05d,frame} is replaced by the frame number.
Input = frames/frame.{%05d,frame}.txt
Output = psi/psi.{%05d,frame}.txt

# Box geometry. Boxes are centered on the origin and tilted like HOOMD boxes.
# Not needed for sheet input, which carries its own box.
Lx = 20
Ly = 20
Lz = 0
Is2D = true

#######################
## Optional Variables ##
#######################

# Symmetry order of the order parameter. Defaults to 6.
# K = 6

# Neighbors per particle. Defaults to K rounded to the nearest integer.
# Neighbors = 6

# Spatial index, 'cell' (default) or 'kdtree'.
# NeighborMethod = cell

# Tilt factors. Default to 0.
# XY = 0
# XZ = 0
# YZ = 0

# Frames to analyse, e.g. 0..100 - 63. Defaults to 0.
# Frames = 0..10

# 'text' (default) or 'sheet' (gotetra sheet files).
# InputFormat = text
# HeaderLines = 0
# Columns = 0, 1, 2 (a z column of -1 means z = 0)

# 'text' (default) or 'zstd' (compressed binary).
# OutputFormat = text

# TOML file to write per-frame summary statistics to.
# Summary = summary.toml

# Number of threads. Values <= 0 use every core.
# Threads = -1

# panic, fatal, error, warn, info (default), debug, or trace.
# LogLevel = info
`
