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

package orderkey

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/queue"
)

func writeIncoming(t *testing.T, paths fsatomic.Paths, name string, msg model.IncomingMessage) {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(paths.QueueIncoming(), name), body, 0o644))
}

func TestDequeueRunnableSkipsBusyKeyAndRequeues(t *testing.T) {
	root := t.TempDir()
	paths := fsatomic.New(root)
	require.NoError(t, fsatomic.Bootstrap(paths))
	q := queue.New(paths)

	writeIncoming(t, paths, "a.json", model.IncomingMessage{
		MessageID: "a", ConversationID: "c1", ChannelProfileID: "p1",
	})
	writeIncoming(t, paths, "b.json", model.IncomingMessage{
		MessageID: "b", ConversationID: "c2", ChannelProfileID: "p1",
	})

	sched := New(4, 0, 0)
	sched.TryAcquire(model.OrderingKey{Kind: model.OrderingKeyConversation, ChannelProfile: "p1", ConversationID: "c1"}.String())

	claimed, key, err := DequeueRunnable(q, sched)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.Equal(t, "b", claimed.Payload.MessageID)
	require.Equal(t, model.OrderingKeyConversation, key.Kind)
}

func TestDequeueRunnableReturnsNilWhenEmpty(t *testing.T) {
	root := t.TempDir()
	paths := fsatomic.New(root)
	require.NoError(t, fsatomic.Bootstrap(paths))
	q := queue.New(paths)

	sched := New(4, 0, 0)
	claimed, _, err := DequeueRunnable(q, sched)
	require.NoError(t, err)
	require.Nil(t, claimed)
}
