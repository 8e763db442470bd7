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

// Package logger is the package-level leveled logger used throughout
// backpackfs. It wraps log/slog with two wire formats (human-readable
// text and structured json) and a severity threshold that can be
// changed at runtime, so a long-lived worker pool doesn't need to
// thread a logger handle through every call.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/googlecloudplatform/backpackfs/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Custom levels. slog only predefines Debug/Info/Warn/Error; Trace sits
// below Debug and Off sits above Error so nothing is ever logged at it.
const (
	LevelTrace   slog.Level = -8
	LevelDebug   slog.Level = slog.LevelDebug
	LevelInfo    slog.Level = slog.LevelInfo
	LevelWarning slog.Level = slog.LevelWarn
	LevelError   slog.Level = slog.LevelError
	LevelOff     slog.Level = 12
)

type loggerFactory struct {
	mu     sync.Mutex
	format string // "text" or "json"
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	f.mu.Lock()
	format := f.format
	f.mu.Unlock()

	if format == "json" {
		return &jsonHandler{w: w, level: level, prefix: prefix}
	}
	return &textHandler{w: w, level: level, prefix: prefix}
}

var (
	defaultLoggerFactory = &loggerFactory{format: "text"}
	programLevel         = new(slog.LevelVar)
	loggerMu             sync.RWMutex
	output               io.Writer = os.Stderr
	defaultLogger                 = slog.New(defaultLoggerFactory.createJsonOrTextHandler(output, programLevel, ""))
	fileWriter           io.Closer
)

// Init applies cfg: it sets the wire format and severity threshold, and
// if cfg.FilePath is non-empty it routes output through a rotating,
// asynchronous file writer instead of stderr. Init replaces whatever
// writer a previous Init call installed, closing it first.
func Init(cfg config.LogConfig) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
	}

	var w io.Writer = os.Stderr
	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.Backups,
			Compress:   cfg.Compress,
		}
		async := NewAsyncLogger(lj, 4096)
		fileWriter = async
		w = async
	}

	defaultLoggerFactory.mu.Lock()
	defaultLoggerFactory.format = cfg.Format
	defaultLoggerFactory.mu.Unlock()

	output = w
	setLoggingLevel(string(cfg.Severity), programLevel)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(output, programLevel, ""))
	return nil
}

// SetLogFormat switches the wire format ("text" or "json") of the
// default logger without touching its severity threshold or writer.
func SetLogFormat(format string) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLoggerFactory.mu.Lock()
	defaultLoggerFactory.format = format
	defaultLoggerFactory.mu.Unlock()
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(output, programLevel, ""))
}

// SetLoggingLevel changes the default logger's severity threshold.
func SetLoggingLevel(severity config.LogSeverity) {
	setLoggingLevel(string(severity), programLevel)
}

func setLoggingLevel(severity string, level *slog.LevelVar) {
	switch severity {
	case string(config.TRACE):
		level.Set(LevelTrace)
	case string(config.DEBUG):
		level.Set(LevelDebug)
	case string(config.INFO):
		level.Set(LevelInfo)
	case string(config.WARNING):
		level.Set(LevelWarning)
	case string(config.ERROR):
		level.Set(LevelError)
	case string(config.OFF):
		level.Set(LevelOff)
	default:
		level.Set(LevelInfo)
	}
}

func log(level slog.Level, format string, args ...interface{}) {
	loggerMu.RLock()
	l := defaultLogger
	loggerMu.RUnlock()
	l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Tracef logs at TRACE severity, the most verbose level — per-call
// buffer reads/writes and TOC block walks belong here.
func Tracef(format string, args ...interface{}) { log(LevelTrace, format, args...) }

// Debugf logs at DEBUG severity — flush/close lifecycle events and
// worker pool scheduling decisions belong here.
func Debugf(format string, args ...interface{}) { log(LevelDebug, format, args...) }

// Infof logs at INFO severity.
func Infof(format string, args ...interface{}) { log(LevelInfo, format, args...) }

// Warnf logs at WARNING severity — recoverable but noteworthy
// conditions, such as a finalizer flushing an unclosed backpack.
func Warnf(format string, args ...interface{}) { log(LevelWarning, format, args...) }

// Errorf logs at ERROR severity.
func Errorf(format string, args ...interface{}) { log(LevelError, format, args...) }
