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

package vlog

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOr(t *testing.T) {
	l := zaptest.NewLogger(t)
	require.Same(t, l, Or(l))
	require.NotNil(t, Or(nil))
	require.Same(t, L(), Or(nil))
}

func TestEnabled(t *testing.T) {
	t.Setenv(EnvDebug, "")
	require.False(t, Enabled())
	t.Setenv(EnvDebug, "1")
	require.True(t, Enabled())
}
