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

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/direrr"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/model"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/supervisor"
)

func newStopCommand(resolvePaths func() (fsatomic.Paths, error)) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running direclawd daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := resolvePaths()
			if err != nil {
				return fmt.Errorf("resolving state root: %w", err)
			}

			state, err := readSupervisorState(paths)
			if err != nil {
				return fmt.Errorf("reading daemon state: %w", err)
			}
			if state == nil || state.PID == 0 || !supervisor.ProcessAlive(state.PID) {
				fmt.Println("direclawd is not running")
				return nil
			}

			proc, err := os.FindProcess(state.PID)
			if err != nil {
				return fmt.Errorf("locating process %d: %w", state.PID, err)
			}
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("signaling process %d: %w", state.PID, err)
			}

			deadline := time.Now().Add(wait)
			for time.Now().Before(deadline) {
				if !supervisor.ProcessAlive(state.PID) {
					fmt.Println("direclawd stopped")
					return nil
				}
				time.Sleep(200 * time.Millisecond)
			}
			return &direrr.StopFailedAliveError{PID: state.PID}
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "How long to wait for a graceful shutdown")
	return cmd
}

func readSupervisorState(paths fsatomic.Paths) (*model.SupervisorState, error) {
	raw, err := os.ReadFile(paths.SupervisorState())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var state model.SupervisorState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
