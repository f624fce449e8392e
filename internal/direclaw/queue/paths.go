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

// Package queue implements the filesystem-backed durable message
// queue: incoming/processing/outgoing directories with atomic
// rename-based claim, complete, and requeue operations (spec §4.2).
package queue

import (
	"path/filepath"
	"strconv"
	"strings"
)

// isValidQueueJSONFilename reports whether name is a ".json" file
// with a non-blank stem. Anything else in incoming/ is ignored by
// ClaimOldest rather than treated as an error.
func isValidQueueJSONFilename(name string) bool {
	if filepath.Ext(name) != ".json" {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.TrimSpace(stem) != ""
}

// outgoingFilename builds the deterministic outgoing/ filename for a
// message. Heartbeat messages get a bare id-based name; everything
// else is channel_messageId_timestamp.json.
func outgoingFilename(channel, messageID string, unixMillis int64) string {
	if channel == "heartbeat" {
		return sanitizeFilenameComponent(messageID) + ".json"
	}
	return sanitizeFilenameComponent(channel) + "_" + sanitizeFilenameComponent(messageID) + "_" + strconv.FormatInt(unixMillis, 10) + ".json"
}

func sanitizeFilenameComponent(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
