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

package model

// PostingMode is how an outbound message attaches to a Slack channel.
type PostingMode string

const (
	PostingChannelPost PostingMode = "channel_post"
	PostingThreadReply PostingMode = "thread_reply"
)

// TargetRef is a channel-specific addressing record attached to an
// outbound message. Only Slack targets are modeled; cross-orchestrator
// targets (a TargetRef naming a different orchestrator than the one
// handling the route) are rejected at validation time.
type TargetRef struct {
	ChannelProfileID string      `json:"channelProfileId"`
	ChannelID        string      `json:"channelId"`
	ThreadTS         string      `json:"threadTs,omitempty"`
	PostingMode      PostingMode `json:"postingMode,omitempty"`
}

// RouteActionKind discriminates the RouteAction tagged sum.
type RouteActionKind string

const (
	RouteWorkflowStart    RouteActionKind = "WorkflowStart"
	RouteWorkflowStatus   RouteActionKind = "WorkflowStatus"
	RouteFunctionInvoke   RouteActionKind = "FunctionInvoke"
	RouteDefaultFallback  RouteActionKind = "DefaultFallback"
)

// RouteAction is the result of routeSelectorAction: a closed set of
// concrete engine actions. Only the fields matching Kind are
// populated; callers must switch on Kind rather than guess from which
// fields are non-zero.
type RouteAction struct {
	Kind RouteActionKind

	// RouteWorkflowStart
	WorkflowID string
	Inputs     map[string]any
	TargetRef  *TargetRef

	// RouteWorkflowStatus
	RunID   string
	Message string

	// RouteFunctionInvoke
	FunctionID   string
	FunctionArgs map[string]any
}
