// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/pflag"

	"github.com/open-policy-agent/grid/util"
)

const (
	prettyOutput = "pretty"
	jsonOutput   = "json"

	logFormatText = "text"
	logFormatJSON = "json"

	loggerLogrus = "logrus"
	loggerZap    = "zap"
)

func newOutputFormatFlag() *util.EnumFlag {
	return util.NewEnumFlag(prettyOutput, []string{prettyOutput, jsonOutput})
}

func newLogLevelFlag() *util.EnumFlag {
	return util.NewEnumFlag("error", []string{"debug", "info", "warn", "error"})
}

func newLogFormatFlag() *util.EnumFlag {
	return util.NewEnumFlag(logFormatText, []string{logFormatText, logFormatJSON})
}

func newLoggerFlag() *util.EnumFlag {
	return util.NewEnumFlag(loggerLogrus, []string{loggerLogrus, loggerZap})
}

func addConfigFile(fs *pflag.FlagSet, file *string) {
	fs.StringVarP(file, "config-file", "c", "", "set path of grid configuration file")
}

func addOutputFormat(fs *pflag.FlagSet, format *util.EnumFlag) {
	fs.VarP(format, "format", "f", "set output format")
}

func addLogLevel(fs *pflag.FlagSet, level *util.EnumFlag) {
	fs.VarP(level, "log-level", "l", "set log level")
}

func addLogFormat(fs *pflag.FlagSet, format *util.EnumFlag) {
	fs.Var(format, "log-format", "set log format")
}

func addLogger(fs *pflag.FlagSet, logger *util.EnumFlag) {
	fs.Var(logger, "logger", "set logging backend, zap always logs JSON")
}

func addMetrics(fs *pflag.FlagSet, enabled *bool) {
	fs.BoolVar(enabled, "metrics", false, "report engine metrics")
}

func addPrettyLimit(fs *pflag.FlagSet, limit *int) {
	fs.IntVar(limit, "pretty-limit", 80, "set limit after which pretty output gets truncated")
}
