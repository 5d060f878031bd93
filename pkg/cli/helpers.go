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
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/template-job-agent/pkg/k8s/agent"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
	"github.com/NVIDIA/template-job-agent/pkg/serializer"
)

// parseReportFormat extracts and validates the report format from CLI flags.
func parseReportFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("report-format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown report format: %q, valid formats are: %s",
			f, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return f, nil
}

// parseParams converts KEY=VALUE pairs into template parameters.
// Only the first '=' separates key and value; later pairs win.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid job parameter %q, expected KEY=VALUE", kv)
		}
		params[k] = v
	}
	return params, nil
}

// parseTimeout accepts a Go duration ("60s", "1m30s") or a bare number of seconds.
func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("job timeout is empty")
	}

	var d time.Duration
	if n, err := strconv.Atoi(s); err == nil {
		d = time.Duration(n) * time.Second
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid job timeout %q: %w", s, err)
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("job timeout must be positive, got %q", s)
	}
	return d, nil
}

func newAgent(session *client.Session) *agent.Agent {
	return agent.New(session, append([]agent.Option{agent.WithVersion(version)}, agentOptions...)...)
}

func sessionConfig(cmd *cli.Command) client.Config {
	return client.Config{
		Kubeconfig:            cmd.String("kubeconfig"),
		APIServerURL:          cmd.String("api-server-url"),
		Namespace:             cmd.String("project"),
		TokenEnvKey:           cmd.String("token-from-env-key"),
		NoLogin:               cmd.Bool("no-login"),
		InsecureSkipTLSVerify: cmd.Bool("insecure-skip-tls-verify"),
	}
}

// writeReport serializes rep to the --report destination. Nothing is
// written when the flag is unset; "-" selects stdout.
func writeReport(ctx context.Context, cmd *cli.Command, session *client.Session, format serializer.Format, rep *agent.Report) (err error) {
	dest := cmd.String("report")
	if dest == "" || rep == nil {
		return nil
	}

	var w serializer.Serializer
	if dest == "-" {
		w = serializer.NewWriter(format, cmd.Root().Writer)
	} else {
		w = serializer.NewFileWriterOrStdout(format, dest, session)
	}
	if c, ok := w.(serializer.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}
	return w.Serialize(ctx, rep)
}
