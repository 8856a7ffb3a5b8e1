package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phil-mansfield/hexatic/lib/box"
	"github.com/phil-mansfield/hexatic/lib/neighbor"
)

func TestExampleConfig(t *testing.T) {
	c, err := ParseString(ExampleConfig)
	if err != nil { t.Fatalf("Could not parse ExampleConfig: %s", err.Error()) }
	if err := c.Check(); err != nil {
		t.Fatalf("Expected ExampleConfig to pass Check, got '%s'.", err.Error())
	}

	if c.RMax != 1.5 || c.K != 6 || c.Neighbors != 6 {
		t.Errorf("Expected RMax = 1.5, K = 6, Neighbors = 6, got %g, %g, %d.",
			c.RMax, c.K, c.Neighbors)
	}
	if c.Input != "frames/frame.{%05d,frame}.txt" {
		t.Errorf("Expected Input to be read verbatim, got '%s'.", c.Input)
	}

	b, err := c.Box()
	if err != nil { t.Fatal(err.Error()) }
	if !b.Equal(box.Square(20)) {
		t.Errorf("Expected box %s, got %s.", box.Square(20), b)
	}
	if c.Method() != neighbor.CellList {
		t.Errorf("Expected the default method, got %s.", c.Method())
	}
}

func TestDefaults(t *testing.T) {
	c, err := ParseString("[hexatic]\nRMax = 1\nK = 4.4\n")
	if err != nil { t.Fatal(err.Error()) }

	if c.Neighbors != 4 || c.Frames != "0" || c.InputFormat != "text" ||
		c.OutputFormat != "text" || c.LogLevel != "info" ||
		c.NeighborMethod != "cell" {
		t.Errorf("Expected default values, got %+v.", *c)
	}

	cols, err := c.ColumnIndices()
	if err != nil || cols != [3]int{ 0, 1, 2 } {
		t.Errorf("Expected default columns [0 1 2], got %d (%v).", cols, err)
	}
}

func TestCheck(t *testing.T) {
	base := "[hexatic]\nInput = in.{%d,frame}\nOutput = out.{%d,frame}\n"

	tests := []struct{
		text string
		problems []string
	} {
		{base + "RMax = 1\nLx = 10\nLy = 10\nLz = 10\n", nil},
		{base + "RMax = 1\nInputFormat = sheet\nNeighborMethod = kdtree\n", nil},
		{base + "Lx = 10\nLy = 10\nLz = 10\n", []string{"RMax"}},
		{base + "RMax = 1\n", []string{"box lengths"}},
		{base + "RMax = 1\nLx = 10\nLy = 10\nLz = 10\nK = -1\nNeighbors = -2\n",
			[]string{"K must", "Neighbors must"}},
		{"[hexatic]\nRMax = 1\nLx = 10\nLy = 10\nLz = 10\n",
			[]string{"Input must", "Output must"}},
		{"[hexatic]\nRMax = 1\nInputFormat = sheet\nInput = a{%d\n" +
			"Output = b{%s,frame}\n", []string{"Input is", "Output is"}},
		{base + "RMax = 1\nInputFormat = sheet\nFrames = 3..1\n" +
			"OutputFormat = hdf5\nLogLevel = loud\nNeighborMethod = octree\n",
			[]string{"Frames", "OutputFormat", "LogLevel", "octree"}},
		{base + "RMax = 1\nLx = 10\nLy = 10\nIs2D = true\nColumns = 0, 1\n",
			[]string{"Columns"}},
		{base + "RMax = 1\nInputFormat = gadget\n", []string{"InputFormat"}},
	}

	for i := range tests {
		c, err := ParseString(tests[i].text)
		if err != nil {
			t.Errorf("%d) Could not parse config: %s", i, err.Error())
			continue
		}

		err = c.Check()
		if len(tests[i].problems) == 0 {
			if err != nil {
				t.Errorf("%d) Expected no problems, got '%s'.", i, err.Error())
			}
			continue
		}

		if err == nil {
			t.Errorf("%d) Expected problems %q, got none.",
				i, tests[i].problems)
			continue
		}
		for _, p := range tests[i].problems {
			if !strings.Contains(err.Error(), p) {
				t.Errorf("%d) Expected error to mention '%s', got '%s'.",
					i, p, err.Error())
			}
		}
	}
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()

	ini := filepath.Join(dir, "run.config")
	tomlName := filepath.Join(dir, "run.toml")

	err := os.WriteFile(ini, []byte(`[hexatic]
RMax = 2.5
Threads = 3
Lx = 10
Ly = 12
Lz = 14
XY = 0.5
Input = in.{%03d,frame}.txt
Output = out.{%03d,frame}.txt
OutputFormat = zstd
Frames = 0..4 - 2
`), 0644)
	if err != nil { t.Fatal(err.Error()) }

	err = os.WriteFile(tomlName, []byte(`[hexatic]
rmax = 2.5
threads = 3
lx = 10.0
ly = 12.0
lz = 14.0
xy = 0.5
input = "in.{%03d,frame}.txt"
output = "out.{%03d,frame}.txt"
output_format = "zstd"
frames = "0..4 - 2"
`), 0644)
	if err != nil { t.Fatal(err.Error()) }

	for _, fname := range []string{ ini, tomlName } {
		c, err := Read(fname)
		if err != nil {
			t.Errorf("%s: Read failed with '%s'.", fname, err.Error())
			continue
		}
		if err := c.Check(); err != nil {
			t.Errorf("%s: Check failed with '%s'.", fname, err.Error())
			continue
		}

		hc := c.HexConfig()
		if hc.RMax != 2.5 || hc.K != 6 || hc.Neighbors != 6 || hc.Workers != 3 {
			t.Errorf("%s: Got unexpected HexConfig %+v.", fname, hc)
		}

		b, _ := c.Box()
		exp, _ := box.New(10, 12, 14, 0.5, 0, 0, false)
		if !b.Equal(exp) {
			t.Errorf("%s: Expected box %s, got %s.", fname, exp, b)
		}

		frames, err := c.FrameList()
		if err != nil || len(frames) != 4 || frames[2] != 3 {
			t.Errorf("%s: Expected frames [0 1 3 4], got %d.", fname, frames)
		}
		if c.OutputFormat != "zstd" || !c.HasBox() {
			t.Errorf("%s: Got unexpected config %+v.", fname, *c)
		}
	}

	if _, err := Read(filepath.Join(dir, "missing.toml")); err == nil {
		t.Errorf("Expected reading a missing file to fail.")
	}
}

func TestParseTOML(t *testing.T) {
	c, err := ParseTOML("[hexatic]\nrmax = 1.0\nk = 4.0\nis_2d = true\n" +
		"neighbor_method = \"kdtree\"\ninput_format = \"sheet\"\n")
	if err != nil { t.Fatal(err.Error()) }

	if c.K != 4 || c.Neighbors != 4 || !c.Is2D || c.Method() != neighbor.KDTree {
		t.Errorf("Got unexpected config %+v.", *c)
	}
	if c.HasBox() {
		t.Errorf("Expected sheet input without Lx to use the file's box.")
	}
}
