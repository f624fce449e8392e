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

package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/diagnostics"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/orderkey"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/provider"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/queue"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/routing"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/runstore"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/selector"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/workflow"
)

const noWorkflowAssignedMessage = "no workflow is configured to handle this request"

// Worker claims messages from the incoming queue, resolves the
// orchestrator and workflow that should handle each one, runs the
// workflow synchronously (ordering-key exclusivity already serializes
// same-key work across the whole worker pool), and writes the
// resulting outgoing message.
type Worker struct {
	id       string
	queue    *queue.Queue
	sched    *orderkey.Scheduler
	registry Registry
	runs     *runstore.Store
	engine   *workflow.Engine
	selector *selector.Resolver
	diag     *diagnostics.Logger
	log      *slog.Logger
	stop     *atomic.Bool
}

// NewWorker builds a Worker from its component dependencies.
func NewWorker(id string, q *queue.Queue, sched *orderkey.Scheduler, registry Registry, runs *runstore.Store, engine *workflow.Engine, sel *selector.Resolver, diag *diagnostics.Logger, log *slog.Logger) *Worker {
	return &Worker{
		id:       id,
		queue:    q,
		sched:    sched,
		registry: registry,
		runs:     runs,
		engine:   engine,
		selector: sel,
		diag:     diag,
		log:      log,
		stop:     &atomic.Bool{},
	}
}

// Run implements supervisor.Worker's Run signature: it loops claiming
// and processing messages until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	consecutiveEmpty := 0
	for {
		select {
		case <-ctx.Done():
			w.stop.Store(true)
			return nil
		default:
		}

		claimed, key, err := orderkey.DequeueRunnable(w.queue, w.sched)
		if err != nil {
			w.log.Error("dequeue failed", "worker_id", w.id, "error", err)
			if !orderkey.SleepWithStop(w.stop, w.sched.NextPollInterval(consecutiveEmpty)) {
				return nil
			}
			consecutiveEmpty++
			continue
		}
		if claimed == nil {
			if !orderkey.SleepWithStop(w.stop, w.sched.NextPollInterval(consecutiveEmpty)) {
				return nil
			}
			consecutiveEmpty++
			continue
		}

		consecutiveEmpty = 0
		w.process(ctx, claimed)
		w.sched.Release(key.String())
	}
}

// process resolves, routes, and executes one claimed message, then
// writes its outgoing reply or requeues the message on failure.
func (w *Worker) process(ctx context.Context, claimed *queue.ClaimedMessage) {
	msg := claimed.Payload

	orch, err := w.registry.ResolveOrchestrator(msg.ChannelProfileID)
	if err != nil {
		w.log.Error("orchestrator resolution failed", "worker_id", w.id, "error", err)
		if _, rqErr := w.queue.RequeueFailure(claimed); rqErr != nil {
			w.log.Error("requeue failed", "worker_id", w.id, "error", rqErr)
		}
		return
	}

	action, err := w.route(ctx, orch, msg)
	if err != nil {
		w.log.Error("routing failed", "worker_id", w.id, "error", err)
		if _, rqErr := w.queue.RequeueFailure(claimed); rqErr != nil {
			w.log.Error("requeue failed", "worker_id", w.id, "error", rqErr)
		}
		return
	}

	outgoing := w.dispatch(ctx, orch, msg, action)
	if _, err := w.queue.CompleteSuccess(claimed, outgoing, func(note string) {
		_ = w.diag.Security(diagnostics.LevelWarn, "outbound_files_omitted", diagnostics.F("note", note))
	}); err != nil {
		w.log.Error("complete failed", "worker_id", w.id, "error", err)
	}
}

// route resolves the orchestrator's workflow decision for msg,
// exercising the selector (C6) then the routing decision table (C9)
// in sequence.
func (w *Worker) route(ctx context.Context, orch *OrchestratorRuntime, msg model.IncomingMessage) (model.RouteAction, error) {
	req := model.SelectorRequest{
		RequestID:          uuid.NewString(),
		OrchestratorID:     orch.Config.ID,
		Message:            msg,
		AvailableWorkflows: orch.Config.Workflows,
		DefaultWorkflow:    orch.Config.DefaultWorkflow,
		CreatedAt:          time.Now(),
	}

	selectorAgent, err := orch.resolveAgent(orch.Config.SelectorAgent)
	if err != nil {
		return model.RouteAction{}, err
	}
	agentReq := provider.Request{
		AgentID:          orch.Config.SelectorAgent,
		Provider:         provider.Name(selectorAgent.Provider),
		Model:            selectorAgent.Model,
		WorkingDirectory: orch.Workspace.AllowedRoots[0],
		TimeoutSeconds:   orch.Config.SelectorTimeoutSeconds,
	}

	workflowID, err := w.selector.Resolve(ctx, req, agentReq)
	if err != nil {
		_ = w.diag.Orchestrator(diagnostics.LevelWarn, "selector_failed", diagnostics.F("orchestrator_id", orch.Config.ID), diagnostics.F("error", err.Error()))
		return model.RouteAction{}, err
	}

	result := model.SelectorResult{
		RequestID:        req.RequestID,
		Status:           model.SelectorSelected,
		Action:           model.ActionWorkflowStart,
		SelectedWorkflow: workflowID,
	}
	_ = w.diag.Orchestrator(diagnostics.LevelInfo, "selector_decision", diagnostics.F("orchestrator_id", orch.Config.ID), diagnostics.F("workflow_id", workflowID))
	diagnostics.RecordSelectorDecision(string(result.Action), workflowID == orch.Config.DefaultWorkflow)

	return routing.RouteSelectorAction(result, req, w.runs)
}

// dispatch executes action and returns the outgoing message to write.
// Only RouteWorkflowStart runs the workflow engine; the other three
// route kinds compose a direct reply.
func (w *Worker) dispatch(ctx context.Context, orch *OrchestratorRuntime, msg model.IncomingMessage, action model.RouteAction) model.OutgoingMessage {
	switch action.Kind {
	case model.RouteWorkflowStart:
		return w.runWorkflow(ctx, orch, msg, action)
	case model.RouteWorkflowStatus:
		return w.statusReply(msg, action)
	case model.RouteFunctionInvoke:
		return w.reply(msg, "function invocation is not yet implemented: "+action.FunctionID)
	default:
		return w.reply(msg, noWorkflowAssignedMessage)
	}
}

func (w *Worker) runWorkflow(ctx context.Context, orch *OrchestratorRuntime, msg model.IncomingMessage, action model.RouteAction) model.OutgoingMessage {
	cfg, ok := orch.Workflows[action.WorkflowID]
	if !ok {
		return w.reply(msg, noWorkflowAssignedMessage)
	}

	run, err := w.runs.NewRun(action.WorkflowID, action.Inputs, msg.ChannelProfileID, msg.MessageID)
	if err != nil {
		w.log.Error("run creation failed", "worker_id", w.id, "error", err)
		return w.reply(msg, "failed to start workflow: "+err.Error())
	}

	lookup := func(agentName string) (provider.Name, string, error) {
		entry, err := orch.resolveAgent(agentName)
		if err != nil {
			return "", "", err
		}
		return provider.Name(entry.Provider), entry.Model, nil
	}

	if err := w.engine.Run(ctx, cfg, run, lookup); err != nil {
		if !run.State.IsTerminal() {
			if ferr := w.runs.Fail(run, err); ferr != nil {
				w.log.Error("run failure persist failed", "worker_id", w.id, "error", ferr)
			}
		}
		diagnostics.RecordRunTerminal(run.WorkflowID, string(run.State))
		return w.reply(msg, "workflow "+run.WorkflowID+" failed: "+err.Error())
	}

	diagnostics.RecordRunTerminal(run.WorkflowID, string(run.State))
	return w.reply(msg, "workflow "+run.WorkflowID+" completed (run "+run.RunID+")")
}

func (w *Worker) statusReply(msg model.IncomingMessage, action model.RouteAction) model.OutgoingMessage {
	if action.Message != "" {
		return w.reply(msg, action.Message)
	}
	run, err := w.runs.Load(action.RunID)
	if err != nil {
		return w.reply(msg, "could not load run "+action.RunID+": "+err.Error())
	}
	return w.reply(msg, "run "+run.RunID+" is "+string(run.State))
}

func (w *Worker) reply(msg model.IncomingMessage, text string) model.OutgoingMessage {
	return model.OutgoingMessage{
		Channel:          msg.Channel,
		ChannelProfileID: msg.ChannelProfileID,
		Sender:           "direclaw",
		SenderID:         "direclaw",
		Message:          text,
		Timestamp:        time.Now(),
		MessageID:        uuid.NewString(),
		ConversationID:   msg.ConversationID,
		IsDirect:         msg.IsDirect,
		IsThreadReply:    msg.IsThreadReply,
		OriginalMessage:  msg.Message,
	}
}
