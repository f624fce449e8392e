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
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
	"github.com/dmuso/direclaw-sub003/internal/direclaw/supervisor"
)

func newStartCommand(resolvePaths func() (fsatomic.Paths, error)) *cobra.Command {
	var foreground bool
	var configPath string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the direclawd daemon",
		Long: `Start the direclawd daemon in the background.

The command is idempotent: if a daemon already holds the state root's
single-instance lock, it exits successfully without spawning another.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := resolvePaths()
			if err != nil {
				return fmt.Errorf("resolving state root: %w", err)
			}

			// Acquire and immediately release: if it succeeds, no
			// daemon is running yet and it is safe to spawn one.
			probe := supervisor.NewLock(paths.SupervisorLock())
			if err := probe.Acquire(); err != nil {
				fmt.Println("direclawd is already running")
				return nil
			}
			if err := probe.Release(); err != nil {
				return fmt.Errorf("releasing startup probe lock: %w", err)
			}

			binary, err := exec.LookPath("direclawd")
			if err != nil {
				return fmt.Errorf("direclawd binary not found on PATH: %w", err)
			}

			daemonArgs := []string{"--state-root", paths.Root}
			if configPath != "" {
				daemonArgs = append(daemonArgs, "--config", configPath)
			}

			if foreground {
				daemonCmd := exec.Command(binary, daemonArgs...)
				daemonCmd.Stdout = os.Stdout
				daemonCmd.Stderr = os.Stderr
				daemonCmd.Stdin = os.Stdin
				return daemonCmd.Run()
			}

			logPath := filepath.Join(paths.DaemonDir(), "direclawd.out.log")
			if err := os.MkdirAll(paths.DaemonDir(), 0o755); err != nil {
				return fmt.Errorf("creating daemon directory: %w", err)
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening daemon log file: %w", err)
			}
			defer logFile.Close()

			daemonCmd := exec.Command(binary, daemonArgs...)
			daemonCmd.Stdout = logFile
			daemonCmd.Stderr = logFile
			daemonCmd.Stdin = nil
			if err := daemonCmd.Start(); err != nil {
				return fmt.Errorf("starting direclawd: %w", err)
			}
			fmt.Printf("direclawd started (pid %d), logging to %s\n", daemonCmd.Process.Pid, logPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in the foreground instead of spawning a background process")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to the global config file")
	return cmd
}
