package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/hexatic/lib/config"
	"github.com/phil-mansfield/hexatic/lib/format"
	"github.com/phil-mansfield/hexatic/lib/posio"
)

// framePlan is the parsed form of the frame-related config variables.
type framePlan struct {
	frames    []int
	in, out   *format.FileFormat
	outFormat posio.Format
	logLevel  logrus.Level
}

func newFramePlan(c *config.Config) (*framePlan, error) {
	p := &framePlan{ }
	var err error
	if p.frames, err = c.FrameList(); err != nil {
		return nil, fmt.Errorf("Frames: %w", err)
	}
	if p.in, err = format.ParseFileFormat(c.Input); err != nil {
		return nil, fmt.Errorf("Input: %w", err)
	}
	if p.out, err = format.ParseFileFormat(c.Output); err != nil {
		return nil, fmt.Errorf("Output: %w", err)
	}
	if p.outFormat, err = posio.ParseFormat(c.OutputFormat); err != nil {
		return nil, fmt.Errorf("OutputFormat: %w", err)
	}
	if p.logLevel, err = logrus.ParseLevel(c.LogLevel); err != nil {
		return nil, fmt.Errorf("LogLevel: %w", err)
	}
	return p, nil
}
