// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

func logsCmd() *cli.Command {
	return &cli.Command{
		Name:                  commandLogs,
		Aliases:               []string{"logs"},
		EnableShellCompletion: true,
		Usage:                 "Print the container logs of an existing job",
		Description: `Print the logs of the job's containers, init containers first.
Every requested container must exist in one of the job's pods.

# Examples

  tjagent logs --job-name batch-v1
  tjagent logs --job-name batch-v1 --log-container-name main --log-container-name sidecar`,
		Action: runLogs,
	}
}

func runLogs(ctx context.Context, cmd *cli.Command) error {
	jobName := cmd.String("job-name")
	if jobName == "" {
		return fmt.Errorf("--job-name is required for %s", commandLogs)
	}

	session, err := newSession(sessionConfig(cmd))
	if err != nil {
		return fmt.Errorf("failed to connect to cluster: %w", err)
	}

	_, text, err := newAgent(session).LogsForJob(ctx, jobName, cmd.StringSlice("log-container-name"))
	if err != nil {
		return err
	}

	// Some images log escaped newlines.
	_, err = fmt.Fprint(cmd.Root().Writer, strings.ReplaceAll(text, `\n`, "\n"))
	return err
}
