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
	"os"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
)

// MaxInboundMessageBytes bounds a claimed message body; oversized
// messages are truncated rather than rejected, since rejecting would
// strand the sender's message with no response.
const MaxInboundMessageBytes = 32 * 1024

// normalizeInboundPayload truncates an overlong message body and
// drops non-existent/unreadable file references in place, mirroring
// the tolerant-inbound posture of the original implementation.
func normalizeInboundPayload(msg *model.IncomingMessage) {
	if len(msg.Message) > MaxInboundMessageBytes {
		msg.Message = msg.Message[:MaxInboundMessageBytes]
	}
	if len(msg.Files) == 0 {
		return
	}
	kept := msg.Files[:0]
	for _, f := range msg.Files {
		if fileReadable(f) {
			kept = append(kept, f)
		}
	}
	msg.Files = kept
}

// normalizeOutgoingMessage drops file references that are not
// readable at write time and reports which ones were dropped, so the
// caller can record them in the security log.
func normalizeOutgoingMessage(msg model.OutgoingMessage) (model.OutgoingMessage, []string) {
	if len(msg.Files) == 0 {
		return msg, nil
	}
	var omitted []string
	kept := make([]string, 0, len(msg.Files))
	for _, f := range msg.Files {
		if fileReadable(f) {
			kept = append(kept, f)
		} else {
			omitted = append(omitted, f)
		}
	}
	msg.Files = kept
	return msg, omitted
}

func fileReadable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
