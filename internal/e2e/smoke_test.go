package e2e

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	var replayed atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/login":
			_, _ = fmt.Fprint(w, `{"accessToken":"access-1","refreshToken":"refresh-1"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/rooms":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"roomNumber":"204"}`, string(body))
			replayed.Add(1)
			w.WriteHeader(http.StatusCreated)
			_, _ = fmt.Fprint(w, `{"id":3,"roomNumber":"204"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	home := t.TempDir()
	binaryPath := buildBinary(t)
	env := []string{
		"PM_API_BASE_URL=" + server.URL,
		"PM_SECRETS_BACKEND=file",
		"PM_SYNC_SETTLE_DELAY=0s",
	}

	stdout, stderr, err := runPM(t, binaryPath, home, env, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "dev\n", stdout)

	stdout, stderr, err = runPM(t, binaryPath, home, env, "login", "--email", "manager@example.com", "--password", "s3cret")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Signed in as manager@example.com")

	_, stderr, err = runPM(t, binaryPath, home, env, "rooms", "create", "roomNumber=204", "--offline")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stderr, "Saved offline")

	stdout, stderr, err = runPM(t, binaryPath, home, env, "status", "--offline")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "pending actions: 1")

	_, stderr, err = runPM(t, binaryPath, home, env, "sync")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, int32(1), replayed.Load())

	stdout, stderr, err = runPM(t, binaryPath, home, env, "queue", "list")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "No pending actions.\n", stdout)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "pm-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/pm")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build pm binary: %s", string(output))
	return binaryPath
}

func runPM(t *testing.T, binaryPath, home string, env []string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(append(os.Environ(), "HOME="+home), env...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
