package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"viswords-api/pkg/lambda"
)

// testEnv points DATABASE and UPLOAD_FOLDER at a temp dir
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE", filepath.Join(dir, "viswords.db"))
	t.Setenv("UPLOAD_FOLDER", filepath.Join(dir, "uploads"))
	t.Setenv("SECRET_KEY", "cli-test-secret")
	t.Setenv("ARK_API_KEY", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("MAX_CONTENT_LENGTH", "")
	t.Setenv("UPLOAD_RETENTION", "")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	t.Setenv("VERCEL", "")
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeEvent(t *testing.T, dir string, event lambda.Event) string {
	t.Helper()
	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	name := filepath.Join(dir, "event.json")
	if err := os.WriteFile(name, raw, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return name
}

func TestInvoke_HealthEvent(t *testing.T) {
	dir := testEnv(t)
	name := writeEvent(t, dir, lambda.Event{HTTPMethod: http.MethodGet, Path: "/api/health"})

	stdout, stderr, err := run(t, "", "invoke", name, "--memory")
	if err != nil {
		t.Fatalf("invoke error = %v (stderr %s)", err, stderr)
	}

	var resp lambda.Envelope
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("stdout is not an envelope: %v\n%s", err, stdout)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, body %s", resp.StatusCode, resp.Body)
	}
	if !strings.Contains(resp.Body, `"mode":"serverless"`) {
		t.Errorf("Body = %s", resp.Body)
	}
}

func TestInvoke_Stdin(t *testing.T) {
	testEnv(t)

	stdout, _, err := run(t, `{"httpMethod":"GET","path":"/nowhere"}`, "invoke", "-", "--memory", "--pretty")
	if err != nil {
		t.Fatalf("invoke error = %v", err)
	}
	if !strings.Contains(stdout, "\n  \"statusCode\": 404") {
		t.Errorf("stdout = %s", stdout)
	}
}

func TestInvoke_StandInWhenLoadFails(t *testing.T) {
	dir := testEnv(t)
	t.Setenv("MAX_CONTENT_LENGTH", "lots")
	name := writeEvent(t, dir, lambda.Event{HTTPMethod: http.MethodGet, Path: "/api/health"})

	stdout, stderr, err := run(t, "", "invoke", name)
	if err != nil {
		t.Fatalf("invoke error = %v", err)
	}
	if !strings.Contains(stdout, `"statusCode":503`) {
		t.Errorf("stdout = %s", stdout)
	}
	if !strings.Contains(stderr, "stand-in") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestInvoke_InvalidEvent(t *testing.T) {
	testEnv(t)
	if _, _, err := run(t, "not json", "invoke", "-"); err == nil || !strings.Contains(err.Error(), "invalid event") {
		t.Errorf("error = %v", err)
	}
	if _, _, err := run(t, "", "invoke", "/does/not/exist.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfig_MasksSecrets(t *testing.T) {
	testEnv(t)
	t.Setenv("SECRET_KEY", "very-secret-value")
	t.Setenv("ARK_API_KEY", "ark-live-123456")
	t.Setenv("MAX_CONTENT_LENGTH", "16MiB")

	stdout, _, err := run(t, "", "config")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	for _, secret := range []string{"very-secret-value", "ark-live-123456"} {
		if strings.Contains(stdout, secret) {
			t.Errorf("output leaks %q:\n%s", secret, stdout)
		}
	}
	for _, want := range []string{"secret_key: ve******", "mode: server", "max_content_length: 16 MiB", "model: doubao-seed-1-6-lite-251015", "retention: disabled"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestConfig_Serverless(t *testing.T) {
	testEnv(t)
	t.Setenv("DATABASE", "")

	stdout, _, err := run(t, "", "config", "--serverless")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	for _, want := range []string{"mode: serverless", "platform: lambda", "database: /tmp/viswords.db"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		secret, placeholder, want string
	}{
		{"", "p", "(unset)"},
		{"p", "p", "(placeholder)"},
		{"abc", "p", "****"},
		{"abcdef", "p", "ab******"},
		{"豆包密钥密钥", "p", "豆包******"},
	}
	for _, tt := range tests {
		if got := mask(tt.secret, tt.placeholder); got != tt.want {
			t.Errorf("mask(%q) = %q, want %q", tt.secret, got, tt.want)
		}
	}
}

func TestMigrate_Lifecycle(t *testing.T) {
	dir := testEnv(t)
	db := filepath.Join(dir, "other.db")

	stdout, _, err := run(t, "", "migrate", "up", "--db", db)
	if err != nil || !strings.Contains(stdout, "Migrations applied") {
		t.Fatalf("migrate up = %q, %v", stdout, err)
	}

	stdout, _, err = run(t, "", "migrate", "status", "--db", db)
	if err != nil {
		t.Fatalf("migrate status error = %v", err)
	}
	for _, want := range []string{"Version: 1", "Applied: true", "Uploads: 0", db} {
		if !strings.Contains(stdout, want) {
			t.Errorf("status missing %q:\n%s", want, stdout)
		}
	}

	if _, _, err := run(t, "", "migrate", "down", "--db", db); err != nil {
		t.Fatalf("migrate down error = %v", err)
	}
	stdout, _, _ = run(t, "", "migrate", "status", "--db", db)
	if !strings.Contains(stdout, "Applied: false") {
		t.Errorf("status after down:\n%s", stdout)
	}
}

func TestCleanup(t *testing.T) {
	testEnv(t)

	stdout, _, err := run(t, "", "cleanup")
	if err != nil || !strings.Contains(stdout, "Retention disabled") {
		t.Errorf("cleanup = %q, %v", stdout, err)
	}

	stdout, _, err = run(t, "", "cleanup", "--older-than", "24h")
	if err != nil || !strings.Contains(stdout, "Removed 0 uploads older than 24h0m0s") {
		t.Errorf("cleanup --older-than = %q, %v", stdout, err)
	}
}
