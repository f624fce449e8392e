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

// Command direclaw is the operator CLI: it starts, stops, and
// reports on the direclawd daemon process. It never talks to the
// daemon over a socket (spec's no-embedded-RPC-listener non-goal);
// instead it reads/writes the same state root the daemon owns.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmuso/direclaw-sub003/internal/direclaw/fsatomic"
)

var version = "dev"

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var stateRoot string

	cmd := &cobra.Command{
		Use:           "direclaw",
		Short:         "Operate the direclaw orchestration daemon",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&stateRoot, "state-root", "", "Engine state root directory (default: $HOME/.direclaw)")

	resolvePaths := func() (fsatomic.Paths, error) {
		root := stateRoot
		if root == "" {
			defaultRoot, err := fsatomic.DefaultRoot()
			if err != nil {
				return fsatomic.Paths{}, err
			}
			root = defaultRoot
		}
		return fsatomic.New(root), nil
	}

	cmd.AddCommand(newStartCommand(resolvePaths))
	cmd.AddCommand(newStopCommand(resolvePaths))
	cmd.AddCommand(newStatusCommand(resolvePaths))
	return cmd
}
