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

// Package diagnostics writes the three append-only JSONL event logs
// (spec §4.12): runtime.log, security.log, orchestrator.log. Each
// line is a single JSON object with timestamp, level, event and
// event-specific fields; readers parse lines independently and
// tolerate unknown fields.
package diagnostics

import (
	"encoding/json"
	"time"
)

// Level mirrors the log/slog level names used elsewhere in the
// engine, kept as plain strings here since these logs are read by
// external tooling, not slog itself.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Field is a single event-specific key/value pair.
type Field struct {
	Key   string
	Value any
}

// F constructs a Field, used to keep call sites terse.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// line renders event as a single JSON object holding timestamp,
// level, event and each field. A map is used instead of a struct so
// fields can vary per event kind; encoding/json writes map keys in
// sorted order, so keys appear alphabetically, not in insertion order.
func line(level Level, event string, fields []Field) ([]byte, error) {
	entry := make(map[string]any, len(fields)+3)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = string(level)
	entry["event"] = event
	for _, f := range fields {
		entry[f.Key] = f.Value
	}
	return json.Marshal(entry)
}
