// Copyright 2024 The Backpackfs Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/googlecloudplatform/backpackfs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const (
	textTraceString   = "^time=\"[a-zA-Z0-9/:. ]{26}\" severity=TRACE message=\"TestLogs: www.traceExample.com\""
	textDebugString   = "^time=\"[a-zA-Z0-9/:. ]{26}\" severity=DEBUG message=\"TestLogs: www.debugExample.com\""
	textInfoString    = "^time=\"[a-zA-Z0-9/:. ]{26}\" severity=INFO message=\"TestLogs: www.infoExample.com\""
	textWarningString = "^time=\"[a-zA-Z0-9/:. ]{26}\" severity=WARNING message=\"TestLogs: www.warningExample.com\""
	textErrorString   = "^time=\"[a-zA-Z0-9/:. ]{26}\" severity=ERROR message=\"TestLogs: www.errorExample.com\""

	jsonTraceString   = "^{\"timestamp\":{\"seconds\":\\d{1,10},\"nanos\":\\d{0,9}},\"severity\":\"TRACE\",\"message\":\"TestLogs: www.traceExample.com\"}"
	jsonDebugString   = "^{\"timestamp\":{\"seconds\":\\d{1,10},\"nanos\":\\d{0,9}},\"severity\":\"DEBUG\",\"message\":\"TestLogs: www.debugExample.com\"}"
	jsonInfoString    = "^{\"timestamp\":{\"seconds\":\\d{1,10},\"nanos\":\\d{0,9}},\"severity\":\"INFO\",\"message\":\"TestLogs: www.infoExample.com\"}"
	jsonWarningString = "^{\"timestamp\":{\"seconds\":\\d{1,10},\"nanos\":\\d{0,9}},\"severity\":\"WARNING\",\"message\":\"TestLogs: www.warningExample.com\"}"
	jsonErrorString   = "^{\"timestamp\":{\"seconds\":\\d{1,10},\"nanos\":\\d{0,9}},\"severity\":\"ERROR\",\"message\":\"TestLogs: www.errorExample.com\"}"
)

type LoggerTest struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTest))
}

func redirectLogsToGivenBuffer(buf *bytes.Buffer, level config.LogSeverity) {
	var lvl = new(slog.LevelVar)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(buf, lvl, "TestLogs: "))
	setLoggingLevel(string(level), lvl)
}

func fetchLogOutputForSpecifiedSeverityLevel(level config.LogSeverity, functions []func()) []string {
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, level)

	var out []string
	for _, f := range functions {
		f()
		out = append(out, buf.String())
		buf.Reset()
	}
	return out
}

func getTestLoggingFunctions() []func() {
	return []func(){
		func() { Tracef("www.traceExample.com") },
		func() { Debugf("www.debugExample.com") },
		func() { Infof("www.infoExample.com") },
		func() { Warnf("www.warningExample.com") },
		func() { Errorf("www.errorExample.com") },
	}
}

func validateOutput(t *testing.T, expected []string, output []string) {
	for i := range output {
		if expected[i] == "" {
			assert.Equal(t, expected[i], output[i])
			continue
		}
		assert.Regexp(t, regexp.MustCompile(expected[i]), output[i])
	}
}

func validateLogOutputAtSpecifiedFormatAndSeverity(t *testing.T, format string, level config.LogSeverity, expected []string) {
	defaultLoggerFactory.format = format
	out := fetchLogOutputForSpecifiedSeverityLevel(level, getTestLoggingFunctions())
	validateOutput(t, expected, out)
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelOFF() {
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", config.OFF, []string{"", "", "", "", ""})
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelERROR() {
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", config.ERROR, []string{"", "", "", "", textErrorString})
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelWARNING() {
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", config.WARNING, []string{"", "", "", textWarningString, textErrorString})
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelINFO() {
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", config.INFO, []string{"", "", textInfoString, textWarningString, textErrorString})
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelDEBUG() {
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", config.DEBUG, []string{"", textDebugString, textInfoString, textWarningString, textErrorString})
}

func (t *LoggerTest) TestTextFormatLogs_LogLevelTRACE() {
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "text", config.TRACE, []string{textTraceString, textDebugString, textInfoString, textWarningString, textErrorString})
}

func (t *LoggerTest) TestJSONFormatLogs_LogLevelOFF() {
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "json", config.OFF, []string{"", "", "", "", ""})
}

func (t *LoggerTest) TestJSONFormatLogs_LogLevelERROR() {
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "json", config.ERROR, []string{"", "", "", "", jsonErrorString})
}

func (t *LoggerTest) TestJSONFormatLogs_LogLevelTRACE() {
	validateLogOutputAtSpecifiedFormatAndSeverity(t.T(), "json", config.TRACE, []string{jsonTraceString, jsonDebugString, jsonInfoString, jsonWarningString, jsonErrorString})
}
