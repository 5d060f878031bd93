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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/NVIDIA/template-job-agent/pkg/errors"
)

// DefaultNamespace is used when neither the flags nor the kubeconfig name one.
const DefaultNamespace = "default"

// Interface is an alias for kubernetes.Interface to allow easier mocking in tests.
type Interface = kubernetes.Interface

// Config describes how to reach the cluster.
type Config struct {
	// Kubeconfig is an explicit kubeconfig path. Empty means discovery.
	Kubeconfig string

	// APIServerURL is the API server to talk to. Required for token login,
	// overrides the kubeconfig cluster server otherwise.
	APIServerURL string

	// Namespace (OpenShift project) that scopes every operation.
	Namespace string

	// Token is a bearer token. Takes precedence over TokenEnvKey.
	Token string

	// TokenEnvKey names the environment variable holding the bearer token.
	TokenEnvKey string

	// NoLogin skips token handling and uses the credentials already present
	// in the kubeconfig (or the in-cluster service account).
	NoLogin bool

	// InsecureSkipTLSVerify disables server certificate verification for token login.
	InsecureSkipTLSVerify bool
}

// Session bundles the clients and namespace used by one agent. It replaces
// process-wide client state: every component receives the session it works on.
type Session struct {
	Namespace  string
	Clientset  kubernetes.Interface
	Dynamic    dynamic.Interface
	Mapper     meta.RESTMapper
	RESTConfig *rest.Config
}

// NewSession builds the REST configuration described by cfg and the typed,
// dynamic and mapping clients on top of it.
func NewSession(cfg Config) (*Session, error) {
	restConfig, kubeNamespace, err := BuildRESTConfig(cfg)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	dyn, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(clientset.Discovery()))

	ns := resolveNamespace(cfg.Namespace, kubeNamespace)
	slog.Info("session configured",
		"server", restConfig.Host,
		"namespace", ns,
		"auth_method", authMethod(restConfig))

	return &Session{
		Namespace:  ns,
		Clientset:  clientset,
		Dynamic:    dyn,
		Mapper:     mapper,
		RESTConfig: restConfig,
	}, nil
}

// NewSessionForClients wraps already constructed clients, typically fakes in tests.
func NewSessionForClients(namespace string, clientset kubernetes.Interface, dyn dynamic.Interface, mapper meta.RESTMapper) *Session {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Session{
		Namespace: namespace,
		Clientset: clientset,
		Dynamic:   dyn,
		Mapper:    mapper,
	}
}

// BuildRESTConfig returns the REST configuration for cfg together with the
// namespace of the active kubeconfig context (empty for token login).
//
// Token login (NoLogin unset):
//   - Token, or the value of the TokenEnvKey environment variable
//   - APIServerURL is required
//
// Kubeconfig (NoLogin set):
//  1. Kubeconfig field
//  2. KUBECONFIG environment variable
//  3. ~/.kube/config (if it exists)
//  4. In-cluster configuration (service account)
func BuildRESTConfig(cfg Config) (*rest.Config, string, error) {
	if !cfg.NoLogin {
		return tokenConfig(cfg)
	}

	kubeconfig := kubeconfigPath(cfg.Kubeconfig)

	// Use InClusterConfig directly when no kubeconfig is available
	// This avoids the warning: "Neither --kubeconfig nor --master was specified"
	if kubeconfig == "" {
		config, err := rest.InClusterConfig()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get in-cluster config: %w", err)
		}
		if cfg.APIServerURL != "" {
			config.Host = cfg.APIServerURL
		}
		return config, inClusterNamespace(), nil
	}

	overrides := &clientcmd.ConfigOverrides{}
	if cfg.APIServerURL != "" {
		overrides.ClusterInfo.Server = cfg.APIServerURL
	}

	cc := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig},
		overrides,
	)

	config, err := cc.ClientConfig()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
	}

	ns, _, err := cc.Namespace()
	if err != nil {
		slog.Debug("no namespace in kubeconfig context", "error", err)
		ns = ""
	}

	return config, ns, nil
}

func tokenConfig(cfg Config) (*rest.Config, string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenEnvKey != "" {
		token = os.Getenv(cfg.TokenEnvKey)
	}
	if token == "" {
		return nil, "", errors.NewWithContext(errors.ErrCodeUnauthorized,
			"no login credentials given, a token is required unless --no-login is set",
			map[string]any{"token_env_key": cfg.TokenEnvKey})
	}
	if cfg.APIServerURL == "" {
		return nil, "", errors.New(errors.ErrCodeInvalidRequest, "api server url is required for token login")
	}

	return &rest.Config{
		Host:        cfg.APIServerURL,
		BearerToken: strings.TrimSpace(token),
		TLSClientConfig: rest.TLSClientConfig{
			Insecure: cfg.InsecureSkipTLSVerify,
		},
	}, "", nil
}

// kubeconfigPath resolves the kubeconfig file to load, or "" for in-cluster.
func kubeconfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}

	path := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ""
	}
	return path
}

const serviceAccountNamespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

func inClusterNamespace() string {
	b, err := os.ReadFile(serviceAccountNamespaceFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func resolveNamespace(explicit, fromKubeconfig string) string {
	ns := explicit
	if ns == "" {
		ns = fromKubeconfig
	}
	if ns == "" || ns == DefaultNamespace {
		slog.Warn("using project default, possible problem with privileges")
		return DefaultNamespace
	}
	return ns
}

func authMethod(config *rest.Config) string {
	switch {
	case config.AuthProvider != nil:
		return config.AuthProvider.Name
	case config.ExecProvider != nil:
		return "exec"
	case config.BearerToken != "" || config.BearerTokenFile != "":
		return "bearer-token"
	case config.CertData != nil || config.CertFile != "":
		return "cert"
	default:
		return "default"
	}
}
