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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/template-job-agent/pkg/k8s/agent"
)

func createCmd() *cli.Command {
	return &cli.Command{
		Name:                  commandCreate,
		Aliases:               []string{"create"},
		EnableShellCompletion: true,
		Usage:                 "Instantiate a template and wait for its jobs",
		Description: `Instantiate a template and supervise the created objects:
  1. Fetch the template from the project (or read --template-file)
  2. Substitute the --job-param values and apply --override-job-name
  3. Delete objects with the same names unless --no-delete-if-found is set
  4. Create the objects
  5. Wait for every Job until it succeeds, fails or --job-timeout passes
  6. Print the job logs on success, diagnostics on failure

# Examples

  tjagent create --template-name batch-v1 --job-param ARG=42 --job-timeout 60s

Write the report to a ConfigMap and push metrics:
  tjagent create --template-name batch-v1 \
    --report cm://batch/tjagent-report \
    --metrics-push-url http://pushgateway:9091`,
		Action: runCreate,
	}
}

func runCreate(ctx context.Context, cmd *cli.Command) error {
	req, err := createRequest(cmd)
	if err != nil {
		return err
	}

	reportFormat, err := parseReportFormat(cmd)
	if err != nil {
		return err
	}

	session, err := newSession(sessionConfig(cmd))
	if err != nil {
		return fmt.Errorf("failed to connect to cluster: %w", err)
	}

	rep, err := newAgent(session).CreateJobFromTemplate(ctx, req)

	if werr := writeReport(ctx, cmd, session, reportFormat, rep); werr != nil {
		slog.Error("failed to write report", "error", werr)
	}
	if perr := agent.PushMetrics(ctx, cmd.String("metrics-push-url"), rep.RunID); perr != nil {
		slog.Warn("failed to push metrics", "error", perr)
	}

	if err != nil {
		return err
	}
	if !rep.OK() {
		return fmt.Errorf("template %s did not complete successfully", templateLabel(req))
	}
	return nil
}

func createRequest(cmd *cli.Command) (agent.Request, error) {
	req := agent.Request{
		TemplateName:        cmd.String("template-name"),
		TemplateFile:        cmd.String("template-file"),
		OverrideNames:       cmd.StringSlice("override-job-name"),
		LogContainers:       cmd.StringSlice("log-container-name"),
		KeepExisting:        cmd.Bool("no-delete-if-found"),
		DeleteAfterFinished: cmd.Bool("delete-after-finished"),
		Async:               cmd.Bool("async"),
		LocalProcess:        cmd.Bool("local-process"),
		CheckPermissions:    cmd.Bool("check-permissions"),
	}
	if req.TemplateName == "" && req.TemplateFile == "" {
		return req, fmt.Errorf("--template-name or --template-file is required for %s", commandCreate)
	}

	params, err := parseParams(cmd.StringSlice("job-param"))
	if err != nil {
		return req, err
	}
	req.Params = params

	timeout, err := parseTimeout(cmd.String("job-timeout"))
	if err != nil {
		return req, err
	}
	req.Timeout = timeout

	return req, nil
}

func templateLabel(req agent.Request) string {
	if req.TemplateName != "" {
		return req.TemplateName
	}
	return req.TemplateFile
}
