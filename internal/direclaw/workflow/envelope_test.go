// Copyright 2025 Tom Barlow
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

package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEnvelopeExtractsLastOccurrence(t *testing.T) {
	text := `some reasoning
[workflow_result]{"outputs":{"foo":"old"}}[/workflow_result]
more text
[workflow_result]{"outputs":{"foo":"bar"},"decision":"approve"}[/workflow_result]`

	env, err := ParseEnvelope(text)
	require.NoError(t, err)
	require.Equal(t, "approve", env.Decision)
	require.Equal(t, "bar", env.Outputs["foo"])
}

func TestParseEnvelopeNoEnvelopeIsNotAnError(t *testing.T) {
	env, err := ParseEnvelope("plain text with no envelope")
	require.NoError(t, err)
	require.Empty(t, env.Outputs)
}

func TestEvalJQExtractsField(t *testing.T) {
	out, err := EvalJQ(context.Background(), ".outputs.foo", map[string]any{
		"outputs": map[string]any{"foo": "bar"},
	})
	require.NoError(t, err)
	require.Equal(t, "bar", out)
}
