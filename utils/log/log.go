/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package log wraps logrus with the small surface the synchronizer and
// pipeline actually call, so every package logs the same way instead of
// mixing fmt.Println and ad hoc formatting.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Fields is the field map passed to WithFields.
type Fields = logrus.Fields

// Entry is a logrus entry with fields already attached.
type Entry = logrus.Entry

// SetOutput sets the standard logger output.
func SetOutput(out io.Writer) {
	logrus.SetOutput(out)
}

// SetLevel sets the standard logger's minimum level.
func SetLevel(level logrus.Level) {
	logrus.SetLevel(level)
}

// WithField starts a log entry with a single field attached.
func WithField(key string, value interface{}) *Entry {
	return logrus.WithField(key, value)
}

// WithFields starts a log entry with a field map attached.
func WithFields(fields Fields) *Entry {
	return logrus.WithFields(fields)
}

// WithError starts a log entry with err attached under the standard key.
func WithError(err error) *Entry {
	return logrus.WithError(err)
}

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) { logrus.Debugf(format, args...) }

// Infof logs at info level.
func Infof(format string, args ...interface{}) { logrus.Infof(format, args...) }

// Warnf logs at warn level.
func Warnf(format string, args ...interface{}) { logrus.Warnf(format, args...) }

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) { logrus.Errorf(format, args...) }

// Info logs at info level.
func Info(args ...interface{}) { logrus.Info(args...) }

// Fatalf logs at fatal level and exits the process.
func Fatalf(format string, args ...interface{}) { logrus.Fatalf(format, args...) }
