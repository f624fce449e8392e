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

// Package model defines the data model shared across every
// orchestration engine component (spec §3).
package model

import "time"

// IncomingMessage is an inbound chat-shaped message, immutable after
// claim. The is_direct/is_mentioned/is_thread_reply triple is
// required on strict decode paths (queue claim) and defaulted false
// on lenient paths (synthetic scheduler triggers) — see DESIGN.md's
// Open Question resolution.
type IncomingMessage struct {
	Channel           string         `json:"channel"`
	ChannelProfileID  string         `json:"channelProfileId,omitempty"`
	Sender            string         `json:"sender"`
	SenderID          string         `json:"senderId"`
	Message           string         `json:"message"`
	Timestamp         time.Time      `json:"timestamp"`
	MessageID         string         `json:"messageId"`
	ConversationID    string         `json:"conversationId,omitempty"`
	IsDirect          bool           `json:"isDirect"`
	IsThreadReply     bool           `json:"isThreadReply"`
	IsMentioned       bool           `json:"isMentioned"`
	Files             []string       `json:"files,omitempty"`
	WorkflowRunID     string         `json:"workflowRunId,omitempty"`
	WorkflowStepID    string         `json:"workflowStepId,omitempty"`
}

// OutgoingMessage mirrors IncomingMessage plus response-specific
// fields. Written atomically, never mutated after write.
type OutgoingMessage struct {
	Channel          string    `json:"channel"`
	ChannelProfileID string    `json:"channelProfileId,omitempty"`
	Sender           string    `json:"sender"`
	SenderID         string    `json:"senderId"`
	Message          string    `json:"message"`
	Timestamp        time.Time `json:"timestamp"`
	MessageID        string    `json:"messageId"`
	ConversationID   string    `json:"conversationId,omitempty"`
	IsDirect         bool      `json:"isDirect"`
	IsThreadReply    bool      `json:"isThreadReply"`
	IsMentioned      bool      `json:"isMentioned"`
	Files            []string  `json:"files,omitempty"`

	Agent           string `json:"agent"`
	OriginalMessage string `json:"originalMessage"`
	TargetRef       string `json:"targetRef,omitempty"`
}

// OrderingKeyKind discriminates OrderingKey's closed variant set.
type OrderingKeyKind string

const (
	OrderingKeyWorkflowRun   OrderingKeyKind = "workflow_run"
	OrderingKeyConversation  OrderingKeyKind = "conversation"
	OrderingKeyMessage       OrderingKeyKind = "message"
)

// OrderingKey is derived deterministically from an IncomingMessage:
// workflow run wins, then profile+conversation, else message id.
type OrderingKey struct {
	Kind           OrderingKeyKind
	RunID          string
	ChannelProfile string
	ConversationID string
	MessageID      string
}

// String returns a stable textual form suitable for use as a map key.
func (k OrderingKey) String() string {
	switch k.Kind {
	case OrderingKeyWorkflowRun:
		return "run:" + k.RunID
	case OrderingKeyConversation:
		return "conv:" + k.ChannelProfile + ":" + k.ConversationID
	default:
		return "msg:" + k.MessageID
	}
}

// DeriveOrderingKey implements the precedence rule from spec §4.3 /
// §3: workflow run wins; else profile+conversation; else message id.
func DeriveOrderingKey(msg IncomingMessage) OrderingKey {
	if msg.WorkflowRunID != "" {
		return OrderingKey{Kind: OrderingKeyWorkflowRun, RunID: msg.WorkflowRunID}
	}
	if msg.ChannelProfileID != "" && msg.ConversationID != "" {
		return OrderingKey{
			Kind:           OrderingKeyConversation,
			ChannelProfile: msg.ChannelProfileID,
			ConversationID: msg.ConversationID,
		}
	}
	return OrderingKey{Kind: OrderingKeyMessage, MessageID: msg.MessageID}
}
