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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/supervisor"
)

func newStatusCommand(resolvePaths func() (fsatomic.Paths, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether direclawd is running and each worker's health",
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

			fmt.Printf("direclawd is running (pid %d, started %s)\n", state.PID, state.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
			for _, worker := range state.Workers {
				fmt.Printf("  %-24s %s (last heartbeat %s)\n", worker.WorkerID, worker.State, worker.LastHeartbeat.Format("15:04:05"))
			}
			return nil
		},
	}
	return cmd
}
