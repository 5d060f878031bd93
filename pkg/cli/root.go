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
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/template-job-agent/pkg/k8s/agent"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
	"github.com/NVIDIA/template-job-agent/pkg/logging"
	"github.com/NVIDIA/template-job-agent/pkg/serializer"
)

const (
	name           = "tjagent"
	versionDefault = "dev"

	commandCreate = "create-job-from-template"
	commandLogs   = "print-logs-for-job"

	defaultTokenEnvKey = "ECFLOW_OPENSHIFT_TOKEN"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

var (
	// newSession connects to the cluster. Tests replace it with fakes.
	newSession = client.NewSession

	// agentOptions are passed to every agent the commands build.
	agentOptions []agent.Option
)

// Execute runs the root command with the process arguments and exits with
// status 1 on any failure. SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                      name,
		Version:                   fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion:     true,
		DisableSliceFlagSeparator: true,
		Usage:                     "Submit templated batch jobs and supervise them to completion",
		Description: `tjagent instantiates a cluster template, creates the resulting objects and
waits for every Job among them to succeed, fail or time out. Failures are
diagnosed with pod descriptions, events and container logs.

The command to run is selected with --command or a subcommand:

  tjagent --template-name batch-v1 --job-param ARG=42 --job-timeout 60s
  tjagent create-job-from-template --template-name batch-v1
  tjagent --command print-logs-for-job --job-name batch-v1 --log-container-name main`,
		Flags: rootFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := cmd.String("log-level")
			if !logging.IsValidLogLevel(level) {
				return ctx, fmt.Errorf("invalid log level: %q, valid levels are: critical, error, warning, info, debug", level)
			}
			logging.SetDefaultLogger(name, version, level, cmd.Bool("log-json"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date,
				"logLevel", level)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			switch c := cmd.String("command"); c {
			case commandCreate:
				return runCreate(ctx, cmd)
			case commandLogs:
				return runLogs(ctx, cmd)
			default:
				return fmt.Errorf("invalid command: %q, valid commands are: %s, %s", c, commandCreate, commandLogs)
			}
		},
		Commands: []*cli.Command{
			createCmd(),
			logsCmd(),
		},
	}
}

// rootFlags are persistent and visible to every subcommand.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "command",
			Usage:   fmt.Sprintf("Command to run when no subcommand is given (%s or %s)", commandCreate, commandLogs),
			Sources: cli.EnvVars("TJAGENT_COMMAND"),
			Value:   commandCreate,
		},

		// Connection
		&cli.StringFlag{
			Name:    "api-server-url",
			Usage:   "API server URL, required unless --no-login is set (e.g. https://api.cluster.example.com:6443)",
			Sources: cli.EnvVars("TJAGENT_API_SERVER_URL"),
		},
		&cli.StringFlag{
			Name:    "project",
			Aliases: []string{"namespace", "n"},
			Usage:   "Project (namespace) that scopes every operation",
			Sources: cli.EnvVars("TJAGENT_PROJECT"),
		},
		&cli.StringFlag{
			Name:    "token-from-env-key",
			Usage:   "Environment variable holding the bearer token",
			Sources: cli.EnvVars("TJAGENT_TOKEN_FROM_ENV_KEY"),
			Value:   defaultTokenEnvKey,
		},
		&cli.BoolFlag{
			Name:    "no-login",
			Usage:   "Use the kubeconfig (or in-cluster) credentials instead of a token",
			Sources: cli.EnvVars("TJAGENT_NO_LOGIN"),
		},
		&cli.StringFlag{
			Name:    "kubeconfig",
			Aliases: []string{"k"},
			Usage:   "Path to kubeconfig file, used with --no-login (overrides KUBECONFIG env)",
			Sources: cli.EnvVars("TJAGENT_KUBECONFIG"),
		},
		&cli.BoolFlag{
			Name:    "insecure-skip-tls-verify",
			Usage:   "Skip API server certificate verification for token login",
			Sources: cli.EnvVars("TJAGENT_INSECURE_SKIP_TLS_VERIFY"),
		},

		// Template submission
		&cli.StringFlag{
			Name:    "template-name",
			Usage:   "Template in the project to instantiate",
			Sources: cli.EnvVars("TJAGENT_TEMPLATE_NAME"),
		},
		&cli.StringFlag{
			Name:    "template-file",
			Usage:   "Local template file (YAML or JSON) used instead of --template-name",
			Sources: cli.EnvVars("TJAGENT_TEMPLATE_FILE"),
		},
		&cli.StringSliceFlag{
			Name:  "override-job-name",
			Usage: "New name for the created objects, in template order (can be repeated)",
		},
		&cli.StringSliceFlag{
			Name:  "job-param",
			Usage: "Template parameter (format: KEY=VALUE, can be repeated)",
		},
		&cli.StringFlag{
			Name:    "job-timeout",
			Usage:   `Wait timeout as a duration ("60s", "5m") or a number of seconds`,
			Sources: cli.EnvVars("TJAGENT_JOB_TIMEOUT"),
			Value:   "60s",
		},
		&cli.BoolFlag{
			Name:  "async",
			Usage: "Return right after the objects are created",
		},
		&cli.BoolFlag{
			Name:  "no-delete-if-found",
			Usage: "Keep existing objects with the same names instead of replacing them",
		},
		&cli.BoolFlag{
			Name:  "delete-after-finished",
			Usage: "Delete the created objects once waiting ends",
		},
		&cli.BoolFlag{
			Name:  "local-process",
			Usage: "Expand the template locally instead of on the server",
		},
		&cli.BoolFlag{
			Name:  "check-permissions",
			Usage: "Verify RBAC access for every operation before creating anything",
		},

		// Logs
		&cli.StringFlag{
			Name:    "job-name",
			Usage:   "Existing job whose logs are printed",
			Sources: cli.EnvVars("TJAGENT_JOB_NAME"),
		},
		&cli.StringSliceFlag{
			Name:  "log-container-name",
			Usage: "Container whose logs are printed (default: all containers, can be repeated)",
		},

		// Logging, reporting and metrics
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (critical, error, warning, info, debug)",
			Sources: cli.EnvVars("TJAGENT_LOG_LEVEL", logging.EnvLogLevel),
			Value:   "info",
		},
		&cli.BoolFlag{
			Name:    "log-json",
			Usage:   "Write logs as JSON",
			Sources: cli.EnvVars("TJAGENT_LOG_JSON"),
		},
		&cli.StringFlag{
			Name:    "report",
			Aliases: []string{"o"},
			Usage: fmt.Sprintf(`Write the submission report to a file, "-" for stdout or %snamespace/name for a ConfigMap`,
				serializer.ConfigMapURIScheme),
			Sources: cli.EnvVars("TJAGENT_REPORT"),
		},
		&cli.StringFlag{
			Name:    "report-format",
			Aliases: []string{"t"},
			Usage:   fmt.Sprintf("Report format (supported values: %v)", serializer.SupportedFormats()),
			Sources: cli.EnvVars("TJAGENT_REPORT_FORMAT"),
			Value:   string(serializer.FormatJSON),
		},
		&cli.StringFlag{
			Name:    "metrics-push-url",
			Usage:   "Prometheus Pushgateway URL that receives the run metrics",
			Sources: cli.EnvVars("TJAGENT_METRICS_PUSH_URL"),
		},
	}
}
