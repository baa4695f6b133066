/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/onsi/ginkgo/v2"
)

// Logger writes the step/info/success/warning/error lines that accompany
// every scenario. Output goes to the GinkgoWriter by default so it is only
// shown for failing specs, or always with -v.
type Logger struct {
	logger *log.Logger
}

// NewLogger creates a logger writing to w. A nil writer selects the GinkgoWriter.
func NewLogger(w io.Writer, debug bool) *Logger {
	if w == nil {
		w = ginkgo.GinkgoWriter
	}

	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	return &Logger{
		logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.000",
			Level:           level,
		}),
	}
}

// With returns a logger that always carries the given key/value pairs.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{logger: l.logger.With(keyvals...)}
}

func (l *Logger) Step(msg string, keyvals ...any) {
	l.logger.Info(msg, append([]any{"event", "step"}, keyvals...)...)
}

func (l *Logger) Info(msg string, keyvals ...any) {
	l.logger.Info(msg, keyvals...)
}

func (l *Logger) Success(msg string, keyvals ...any) {
	l.logger.Info(msg, append([]any{"event", "success"}, keyvals...)...)
}

func (l *Logger) Warning(msg string, keyvals ...any) {
	l.logger.Warn(msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...any) {
	l.logger.Error(msg, keyvals...)
}

func (l *Logger) Debug(msg string, keyvals ...any) {
	l.logger.Debug(msg, keyvals...)
}
