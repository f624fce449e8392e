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
	"os"
	"time"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/queue"
)

// maxScanPerPass bounds how many busy-key messages DequeueRunnable
// will skip past in a single call, so a burst of same-key traffic
// cannot starve the poll loop indefinitely in one pass.
const maxScanPerPass = 64

// DequeueRunnable claims messages from q until it finds one whose
// ordering key is not currently in flight, reserving that key on the
// Scheduler before returning it. Messages whose key is busy are
// requeued (moved to the back of incoming/) so other keys are not
// starved. It returns (nil, zero key, nil) if no runnable message is
// found in this pass. The caller must call sched.Release(key.String())
// once the claimed message finishes processing.
func DequeueRunnable(q *queue.Queue, sched *Scheduler) (*queue.ClaimedMessage, model.OrderingKey, error) {
	for i := 0; i < maxScanPerPass; i++ {
		claimed, err := q.ClaimOldest()
		if err != nil {
			return nil, model.OrderingKey{}, err
		}
		if claimed == nil {
			return nil, model.OrderingKey{}, nil
		}

		key := model.DeriveOrderingKey(claimed.Payload)
		if sched.TryAcquire(key.String()) {
			return claimed, key, nil
		}

		requeued, err := q.RequeueFailure(claimed)
		if err != nil {
			return nil, model.OrderingKey{}, err
		}
		// A rename keeps the file's mtime; bump it so the requeued
		// message sorts after the files already waiting in incoming/.
		now := time.Now()
		if err := os.Chtimes(requeued, now, now); err != nil {
			return nil, model.OrderingKey{}, err
		}
	}
	return nil, model.OrderingKey{}, nil
}
