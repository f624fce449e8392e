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

package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

func newTestQueue(t *testing.T) (*Queue, fsatomic.Paths) {
	t.Helper()
	root := t.TempDir()
	paths := fsatomic.New(root)
	require.NoError(t, fsatomic.Bootstrap(paths))
	return New(paths), paths
}

func writeIncoming(t *testing.T, paths fsatomic.Paths, name string, msg model.IncomingMessage) {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(paths.QueueIncoming(), name), body, 0o644))
}

func TestClaimOldestReturnsOldestFirst(t *testing.T) {
	q, paths := newTestQueue(t)

	writeIncoming(t, paths, "b.json", model.IncomingMessage{MessageID: "b", Message: "second"})
	older := filepath.Join(paths.QueueIncoming(), "b.json")
	require.NoError(t, os.Chtimes(older, time.Now().Add(-time.Minute), time.Now().Add(-time.Minute)))

	writeIncoming(t, paths, "a.json", model.IncomingMessage{MessageID: "a", Message: "first"})

	claimed, err := q.ClaimOldest()
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.Equal(t, "b", claimed.Payload.MessageID)
}

func TestClaimOldestEmptyReturnsNilNil(t *testing.T) {
	q, _ := newTestQueue(t)
	claimed, err := q.ClaimOldest()
	require.NoError(t, err)
	require.Nil(t, claimed)
}

func TestClaimOldestIgnoresNonJSON(t *testing.T) {
	q, paths := newTestQueue(t)
	require.NoError(t, os.WriteFile(filepath.Join(paths.QueueIncoming(), "README.txt"), []byte("x"), 0o644))

	claimed, err := q.ClaimOldest()
	require.NoError(t, err)
	require.Nil(t, claimed)
}

func TestCompleteSuccessWritesOutgoingAndRemovesProcessing(t *testing.T) {
	q, paths := newTestQueue(t)
	writeIncoming(t, paths, "a.json", model.IncomingMessage{MessageID: "a", Channel: "slack", Message: "hi"})

	claimed, err := q.ClaimOldest()
	require.NoError(t, err)
	require.NotNil(t, claimed)

	out := model.OutgoingMessage{
		Channel:   "slack",
		MessageID: "a",
		Message:   "reply",
		Timestamp: time.Now(),
	}
	outPath, err := q.CompleteSuccess(claimed, out, nil)
	require.NoError(t, err)
	require.FileExists(t, outPath)
	require.NoFileExists(t, claimed.ProcessingPath)
}

func TestRequeueFailureMovesBackToIncomingWithUniqueName(t *testing.T) {
	q, paths := newTestQueue(t)
	writeIncoming(t, paths, "a.json", model.IncomingMessage{MessageID: "a", Message: "hi"})

	claimed, err := q.ClaimOldest()
	require.NoError(t, err)

	first, err := q.RequeueFailure(claimed)
	require.NoError(t, err)
	require.FileExists(t, first)

	claimed2, err := q.ClaimOldest()
	require.NoError(t, err)
	require.NotNil(t, claimed2)

	second, err := q.RequeueFailure(claimed2)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestRecoverOnStartupMovesProcessingBackToIncoming(t *testing.T) {
	q, paths := newTestQueue(t)
	writeIncoming(t, paths, "a.json", model.IncomingMessage{MessageID: "a", Message: "hi"})
	_, err := q.ClaimOldest()
	require.NoError(t, err)

	entries, err := os.ReadDir(paths.QueueProcessing())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	recovered, err := q.RecoverOnStartup()
	require.NoError(t, err)
	require.Equal(t, 1, recovered)

	entries, err = os.ReadDir(paths.QueueProcessing())
	require.NoError(t, err)
	require.Empty(t, entries)

	entries, err = os.ReadDir(paths.QueueIncoming())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
