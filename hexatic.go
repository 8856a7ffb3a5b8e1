package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/phil-mansfield/gotetra/render/geom"
	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/hexatic/lib/box"
	"github.com/phil-mansfield/hexatic/lib/config"
	"github.com/phil-mansfield/hexatic/lib/error"
	"github.com/phil-mansfield/hexatic/lib/order"
	"github.com/phil-mansfield/hexatic/lib/posio"
	"github.com/phil-mansfield/hexatic/lib/thread"
)

const helpText = `hexatic computes the hexatic order parameter of every particle in a series
of periodic simulation frames.

Usage:
    hexatic help
    hexatic example_config
    hexatic check <config file>
    hexatic compute <config file>

Modes:
    help           - prints this message.
    example_config - prints an example config file with every variable
                     documented.
    check          - checks a config file for errors without computing
                     anything.
    compute        - computes the order parameter of every frame listed in
                     the config file.

Config files ending in .toml are read as TOML. Everything else is read as a
gcfg (.ini-style) file.`

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{ FullTimestamp: true })

	if len(os.Args) < 2 {
		error.External("No mode given. Run 'hexatic help' for usage.")
	}
	mode := os.Args[1]

	switch mode {
	case "help":
		fmt.Println(helpText)
	case "example_config":
		os.Stdout.WriteString(config.ExampleConfig)
	case "check":
		Check(readConfig())
		fmt.Println("No errors detected.")
	case "compute":
		Compute(readConfig())
	default:
		error.External(
			"You attempted to run hexatic in the mode '%s', but the only " +
				"valid modes are 'help', 'example_config', 'check', and " +
				"'compute'.", mode,
		)
	}
}

// readConfig reads the config file named on the command line.
func readConfig() *config.Config {
	if len(os.Args) != 3 {
		error.External("Mode '%s' takes exactly one argument, the name of " +
			"a config file.", os.Args[1])
	}
	c, err := config.Read(os.Args[2])
	error.Check(err, "Could not read config file")
	return c
}

// Check runs hexatic's "check" mode, which tests for errors in the config
// file.
func Check(c *config.Config) {
	if err := c.Check(); err != nil {
		error.External("%s", err.Error())
	}
}

// frameSummary is one entry in the summary file.
type frameSummary struct {
	Frame  int           `toml:"frame"`
	Input  string        `toml:"input"`
	Output string        `toml:"output"`
	Stats  order.Summary `toml:"stats"`
}

type summaryFile struct {
	Frames []frameSummary `toml:"frames"`
}

// Compute runs hexatic's "compute" mode, which computes and writes the order
// parameters of every frame.
func Compute(c *config.Config) {
	Check(c)

	p, err := newFramePlan(c)
	error.Check(err, "Invalid config file")
	logrus.SetLevel(p.logLevel)
	error.Check(thread.Set(c.Threads), "Could not set the thread count")
	frames, in, out, outFormat := p.frames, p.in, p.out, p.outFormat

	hex := order.NewHexOrderFromConfig(c.HexConfig())
	summary := summaryFile{ }

	for _, frame := range frames {
		t0 := time.Now()
		inName, outName := in.Expand(frame), out.Expand(frame)

		x, b := readFrame(c, inName)
		error.Check(hex.Compute(b, x),
			"Could not compute the order parameter of %s", inName)
		error.Check(posio.WritePsi(outName, outFormat, hex.Psi()),
			"Could not write %s", outName)

		s := order.Summarize(hex.Psi())
		summary.Frames = append(summary.Frames,
			frameSummary{ frame, inName, outName, s })

		logrus.WithFields(logrus.Fields{
			"frame": frame, "particles": s.N, "mean_abs_psi": s.Mean,
			"global_psi": s.Global, "seconds": time.Since(t0).Seconds(),
		}).Info("Computed frame.")
	}

	if c.Summary != "" {
		text, err := toml.Marshal(summary)
		if err != nil {
			error.Internal("Could not encode summary: %s", err.Error())
		}
		error.Check(os.WriteFile(c.Summary, text, 0644),
			"Could not write summary file")
	}
}

// readFrame reads the positions in fname and the box they live in.
func readFrame(c *config.Config, fname string) ([]geom.Vec, box.Box) {
	switch c.InputFormat {
	case "sheet":
		x, b, err := posio.ReadSheet(fname)
		error.Check(err, "Could not read sheet file")
		if c.HasBox() {
			b, err = c.Box()
			error.Check(err, "Invalid box")
		}
		return x, b
	default:
		cols, _ := c.ColumnIndices()
		tc := posio.DefaultTextConfig
		tc.SkipLines, tc.Columns = c.HeaderLines, cols

		x, err := posio.ReadText(fname, tc)
		error.Check(err, "Could not read position file")
		b, err := c.Box()
		error.Check(err, "Invalid box")
		return x, b
	}
}
