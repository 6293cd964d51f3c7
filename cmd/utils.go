// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/open-policy-agent/grid/config"
	"github.com/open-policy-agent/grid/engine"
	"github.com/open-policy-agent/grid/logging"
	"github.com/open-policy-agent/grid/logging/ozap"
	"github.com/open-policy-agent/grid/metrics"
	"github.com/open-policy-agent/grid/util"
)

// loadParams are the flags shared by commands that build an engine.
type loadParams struct {
	configFile string
	logLevel   *util.EnumFlag
	logFormat  *util.EnumFlag
	logger     *util.EnumFlag
	metrics    bool
}

func newLoadParams() loadParams {
	return loadParams{
		logLevel:  newLogLevelFlag(),
		logFormat: newLogFormatFlag(),
		logger:    newLoggerFlag(),
	}
}

func (p *loadParams) newLogger(w io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(p.logLevel.String())
	if err != nil {
		return nil, err
	}
	if p.logger.String() == loggerZap {
		return ozap.New(w, level), nil
	}
	logger := logging.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if p.logFormat.String() == logFormatJSON {
		logger.SetJSONFormatter()
	}
	return logger, nil
}

// loadEngine reads the configuration and the data file at path and builds an
// engine over them. Logs go to stderr.
func loadEngine(p loadParams, path string, stderr io.Writer) (*engine.Engine, metrics.Metrics, error) {
	if p.configFile == "" {
		return nil, nil, errors.New("a configuration file must be given with --config-file")
	}

	bs, err := os.ReadFile(p.configFile)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.ParseConfig(bs)
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", p.configFile, err)
	}

	rows, err := readRows(path)
	if err != nil {
		return nil, nil, err
	}

	logger, err := p.newLogger(stderr)
	if err != nil {
		return nil, nil, err
	}

	m := metrics.NoOp()
	if p.metrics {
		m = metrics.New()
	}

	e, err := cfg.NewEngine(rows, engine.WithLogger(logger), engine.WithMetrics(m))
	if err != nil {
		return nil, nil, err
	}
	return e, m, nil
}

// readRows decodes a YAML or JSON array of row objects.
func readRows(path string) ([]map[string]any, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := util.Unmarshal(bs, &rows); err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return rows, nil
}
