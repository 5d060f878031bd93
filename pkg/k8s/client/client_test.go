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

package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"k8s.io/client-go/kubernetes/fake"

	"github.com/NVIDIA/template-job-agent/pkg/errors"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: test
  cluster:
    server: https://api.example.invalid:6443
contexts:
- name: test
  context:
    cluster: test
    user: test
    namespace: batch
current-context: test
users:
- name: test
  user:
    token: kubeconfig-token
`

func writeKubeconfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kubeconfig")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write kubeconfig: %v", err)
	}
	return path
}

func TestBuildRESTConfig_Token(t *testing.T) {
	t.Setenv("TEST_AGENT_TOKEN", " secret-token \n")

	cfg, ns, err := BuildRESTConfig(Config{
		APIServerURL: "https://api.example.invalid:6443",
		TokenEnvKey:  "TEST_AGENT_TOKEN",
	})
	if err != nil {
		t.Fatalf("BuildRESTConfig() error = %v", err)
	}
	if cfg.BearerToken != "secret-token" {
		t.Errorf("BearerToken = %q, want %q", cfg.BearerToken, "secret-token")
	}
	if cfg.Host != "https://api.example.invalid:6443" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if ns != "" {
		t.Errorf("namespace = %q, want empty for token login", ns)
	}
}

func TestBuildRESTConfig_ExplicitTokenWins(t *testing.T) {
	t.Setenv("TEST_AGENT_TOKEN", "from-env")

	cfg, _, err := BuildRESTConfig(Config{
		APIServerURL: "https://api.example.invalid:6443",
		Token:        "explicit",
		TokenEnvKey:  "TEST_AGENT_TOKEN",
	})
	if err != nil {
		t.Fatalf("BuildRESTConfig() error = %v", err)
	}
	if cfg.BearerToken != "explicit" {
		t.Errorf("BearerToken = %q, want explicit", cfg.BearerToken)
	}
}

func TestBuildRESTConfig_TokenErrors(t *testing.T) {
	t.Setenv("TEST_AGENT_EMPTY", "")

	tests := []struct {
		name string
		cfg  Config
		code errors.ErrorCode
	}{
		{
			name: "missing token",
			cfg:  Config{APIServerURL: "https://api.example.invalid", TokenEnvKey: "TEST_AGENT_EMPTY"},
			code: errors.ErrCodeUnauthorized,
		},
		{
			name: "missing server",
			cfg:  Config{Token: "abc"},
			code: errors.ErrCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildRESTConfig(tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestBuildRESTConfig_Kubeconfig(t *testing.T) {
	path := writeKubeconfig(t, testKubeconfig)

	cfg, ns, err := BuildRESTConfig(Config{Kubeconfig: path, NoLogin: true})
	if err != nil {
		t.Fatalf("BuildRESTConfig() error = %v", err)
	}
	if ns != "batch" {
		t.Errorf("namespace = %q, want batch", ns)
	}
	if cfg.Host != "https://api.example.invalid:6443" {
		t.Errorf("Host = %q", cfg.Host)
	}
}

func TestBuildRESTConfig_KubeconfigServerOverride(t *testing.T) {
	path := writeKubeconfig(t, testKubeconfig)

	cfg, _, err := BuildRESTConfig(Config{
		Kubeconfig:   path,
		NoLogin:      true,
		APIServerURL: "https://other.example.invalid:6443",
	})
	if err != nil {
		t.Fatalf("BuildRESTConfig() error = %v", err)
	}
	if cfg.Host != "https://other.example.invalid:6443" {
		t.Errorf("Host = %q, want override", cfg.Host)
	}
}

func TestBuildRESTConfig_InvalidKubeconfig(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"nonexistent path", "/nonexistent/path/to/kubeconfig"},
		{"invalid content", writeKubeconfig(t, "invalid yaml content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildRESTConfig(Config{Kubeconfig: tt.path, NoLogin: true})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "failed to build kube config") {
				t.Errorf("error = %v, want error containing 'failed to build kube config'", err)
			}
		})
	}
}

func TestKubeconfigPath(t *testing.T) {
	t.Setenv("KUBECONFIG", "/from/env")

	if got := kubeconfigPath("/explicit"); got != "/explicit" {
		t.Errorf("kubeconfigPath(explicit) = %q", got)
	}
	if got := kubeconfigPath(""); got != "/from/env" {
		t.Errorf("kubeconfigPath(env) = %q", got)
	}
}

func TestNewSession_Token(t *testing.T) {
	s, err := NewSession(Config{
		APIServerURL: "https://api.example.invalid:6443",
		Token:        "abc",
		Namespace:    "batch",
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if s.Namespace != "batch" {
		t.Errorf("Namespace = %q, want batch", s.Namespace)
	}
	if s.Clientset == nil || s.Dynamic == nil || s.Mapper == nil || s.RESTConfig == nil {
		t.Error("NewSession() left a client unset")
	}
}

func TestResolveNamespace(t *testing.T) {
	tests := []struct {
		explicit, kube, want string
	}{
		{"batch", "other", "batch"},
		{"", "other", "other"},
		{"", "", DefaultNamespace},
		{DefaultNamespace, "", DefaultNamespace},
	}

	for _, tt := range tests {
		if got := resolveNamespace(tt.explicit, tt.kube); got != tt.want {
			t.Errorf("resolveNamespace(%q, %q) = %q, want %q", tt.explicit, tt.kube, got, tt.want)
		}
	}
}

func TestNewSessionForClients(t *testing.T) {
	s := NewSessionForClients("", fake.NewClientset(), nil, nil)
	if s.Namespace != DefaultNamespace {
		t.Errorf("Namespace = %q, want %q", s.Namespace, DefaultNamespace)
	}
	if s.Clientset == nil {
		t.Error("Clientset not set")
	}
}
