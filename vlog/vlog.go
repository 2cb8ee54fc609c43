// Copyright 2025 go-highway Authors
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

// Package vlog provides the process-wide debug logger.
//
// Logging is off unless the VECAPI_DEBUG environment variable is set, in
// which case a development logger writes to stderr.
package vlog

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

// EnvDebug enables debug logging when set to a non-empty value.
const EnvDebug = "VECAPI_DEBUG"

var logger = sync.OnceValue(func() *zap.Logger {
	if !Enabled() {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("vecapi")
})

// Enabled reports whether VECAPI_DEBUG is set.
func Enabled() bool {
	return os.Getenv(EnvDebug) != ""
}

// L returns the process-wide logger.
func L() *zap.Logger {
	return logger()
}

// Or returns l, or the process-wide logger if l is nil.
func Or(l *zap.Logger) *zap.Logger {
	if l == nil {
		return L()
	}
	return l
}
