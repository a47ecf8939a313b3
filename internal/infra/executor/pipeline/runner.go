package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
)

// Runner hands an analysis request to the external pipeline worker.
// The request is written to a transient JSON file whose path is appended to
// the configured argv; the worker's last non-empty stdout line is the result.
type Runner struct {
	argv       []string
	payloadDir string
	timeout    time.Duration
	apiKeyEnv  string
	apiKey     string
}

func NewRunner(argv []string, payloadDir string, timeout time.Duration, apiKeyEnv, apiKey string) *Runner {
	return &Runner{
		argv:       argv,
		payloadDir: payloadDir,
		timeout:    timeout,
		apiKeyEnv:  apiKeyEnv,
		apiKey:     apiKey,
	}
}

func (r *Runner) Run(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if err := os.MkdirAll(r.payloadDir, 0o755); err != nil {
		return nil, &domain.EncodeError{Err: err}
	}

	payloadPath := filepath.Join(r.payloadDir, uuid.New().String()+".json")
	data, err := json.Marshal(req)
	if err != nil {
		return nil, &domain.EncodeError{Err: err}
	}
	if err := os.WriteFile(payloadPath, data, 0o600); err != nil {
		return nil, &domain.EncodeError{Err: err}
	}
	// hapus payload apapun hasilnya; kegagalan cleanup cuma dilog
	defer func() {
		if rmErr := os.Remove(payloadPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("warning: failed to remove payload %s: %v", payloadPath, rmErr)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	argv := append(append([]string{}, r.argv...), payloadPath)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = os.Environ()
	if r.apiKey != "" {
		// credential for the worker; keep it out of any log line
		cmd.Env = append(cmd.Env, r.apiKeyEnv+"="+r.apiKey)
	}

	if err := cmd.Start(); err != nil {
		return nil, &domain.StartError{Err: err}
	}

	waitErr := cmd.Wait()
	if ctx.Err() == context.DeadlineExceeded {
		// CommandContext already killed the worker; partial output is dropped
		return nil, domain.ErrTimeout
	}
	if waitErr != nil {
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			return nil, &domain.ExitError{Code: ee.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		return nil, &domain.StartError{Err: waitErr}
	}

	line, ok := lastLine(stdout.String())
	if !ok {
		return nil, &domain.OutputError{Err: errors.New("worker produced no output")}
	}

	var res domain.AnalysisResult
	if err := json.Unmarshal([]byte(line), &res); err != nil {
		return nil, &domain.OutputError{Line: line, Err: err}
	}
	if err := res.Validate(); err != nil {
		return nil, &domain.OutputError{Line: line, Err: err}
	}
	return &res, nil
}

// lastLine returns the final non-empty line of s. Everything before it is
// worker progress/debug chatter and is discarded.
func lastLine(s string) (string, bool) {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if t := strings.TrimSpace(lines[i]); t != "" {
			return t, true
		}
	}
	return "", false
}
