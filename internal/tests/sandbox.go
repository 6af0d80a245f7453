package tests

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"
)

// Environment read by the sandbox integration tests
const (
	EnvSandboxEndpoint   = "BRIDGE_SANDBOX_ENDPOINT"
	EnvSandboxBaseDir    = "BRIDGE_SANDBOX_BASE_DIR"
	EnvSandboxSource     = "BRIDGE_SANDBOX_SOURCE"
	EnvSandboxPrivateKey = "BRIDGE_SANDBOX_PRIVATE_KEY"
	EnvSandboxRollup     = "BRIDGE_SANDBOX_ROLLUP"
)

type SandboxConfig struct {
	OctezClient string
	Endpoint    string
	BaseDir     string
	// Source is the octez-client alias paying for operations.
	Source string
	// PrivateKey signs transfers. It does not need to belong to Source.
	PrivateKey string
	// Rollup is the sr1 address bridges are originated with.
	Rollup string
}

// ReadSandboxConfig skips t unless a sandbox node and octez-client are available.
func ReadSandboxConfig(t *testing.T) *SandboxConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping sandbox integration test in short mode")
	}
	cfg := &SandboxConfig{
		OctezClient: "octez-client",
		Endpoint:    os.Getenv(EnvSandboxEndpoint),
		BaseDir:     os.Getenv(EnvSandboxBaseDir),
		Source:      os.Getenv(EnvSandboxSource),
		PrivateKey:  os.Getenv(EnvSandboxPrivateKey),
		Rollup:      os.Getenv(EnvSandboxRollup),
	}
	if cfg.Endpoint == "" || cfg.Source == "" || cfg.PrivateKey == "" {
		t.Skipf("Skipping sandbox integration test: set %s, %s and %s", EnvSandboxEndpoint, EnvSandboxSource, EnvSandboxPrivateKey)
	}
	if _, err := exec.LookPath(cfg.OctezClient); err != nil {
		t.Skipf("Skipping sandbox integration test: %s not found", cfg.OctezClient)
	}
	return cfg
}

// WaitForNode polls the node until it serves its head block header.
func WaitForNode(ctx context.Context, endpoint string) error {
	url := endpoint + "/chains/main/blocks/head/header"
	for i := 1; i < 10; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		res, err := http.DefaultClient.Do(req)
		if err == nil {
			_ = res.Body.Close()
			if res.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second * time.Duration(i)):
		}
	}
	return fmt.Errorf("node at %s is not ready", endpoint)
}
