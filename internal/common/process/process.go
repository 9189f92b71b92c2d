// File path: internal/common/process/process.go
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
)

// Sidecar describes an external process launched alongside the server, such
// as a dockerised Qdrant. Output streams are forwarded through the shared
// logger under the sidecar's name.
type Sidecar struct {
	Name          string
	Command       string
	Args          []string
	Env           []string
	ReadyURL      string
	ReadyTimeout  time.Duration
	ReadyInterval time.Duration
	StopTimeout   time.Duration
}

// Handle tracks a running sidecar until Stop reaps it.
type Handle struct {
	cfg  Sidecar
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.RWMutex
	waitErr error
}

// Start launches the sidecar and, when a ReadyURL is configured, blocks
// until the probe answers or times out. A sidecar that dies before turning
// ready is reported as an error, not left half-started.
func Start(ctx context.Context, cfg Sidecar) (*Handle, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("process: command required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := common.Logger()
	logger.Info(
		"process: launching sidecar",
		"service", cfg.Name,
		"command", cfg.Command,
		"args", strings.Join(cfg.Args, " "),
	)

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("process: stdout pipe %s: %w", cfg.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, fmt.Errorf("process: stderr pipe %s: %w", cfg.Name, err)
	}
	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("process: start %s: %w", cfg.Name, err)
	}

	var drain sync.WaitGroup
	forward := func(pipe io.ReadCloser, stream string) {
		drain.Add(1)
		go func() {
			defer drain.Done()
			scanner := bufio.NewScanner(pipe)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			level := slog.LevelInfo
			if stream == "stderr" {
				level = slog.LevelWarn
			}
			for scanner.Scan() {
				logger.Log(context.Background(), level, scanner.Text(), "service", cfg.Name, "stream", stream)
			}
		}()
	}
	forward(stdout, "stdout")
	forward(stderr, "stderr")

	handle := &Handle{cfg: cfg, cmd: cmd, done: make(chan struct{})}
	go func() {
		drain.Wait()
		err := cmd.Wait()
		handle.mu.Lock()
		handle.waitErr = err
		handle.mu.Unlock()
		close(handle.done)
	}()

	if err := handle.waitReady(ctx); err != nil {
		handle.Stop(context.Background())
		return nil, err
	}
	logger.Info("process: sidecar ready", "service", cfg.Name, "url", cfg.ReadyURL)
	return handle, nil
}

// Stop interrupts the sidecar and escalates to a kill after StopTimeout.
func (h *Handle) Stop(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := common.Logger()
	logger.Info("process: stopping sidecar", "service", h.cfg.Name)
	if h.cmd != nil && h.cmd.Process != nil {
		if err := h.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logger.Warn("process: interrupt failed", "service", h.cfg.Name, "error", err)
		}
	}
	stopTimeout := h.cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = 5 * time.Second
	}
	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return h.exitError()
	case <-timer.C:
		logger.Warn("process: forcing sidecar kill", "service", h.cfg.Name)
		if h.cmd != nil && h.cmd.Process != nil {
			if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				logger.Error("process: kill failed", "service", h.cfg.Name, "error", err)
				return err
			}
		}
		<-h.done
		return h.exitError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) waitReady(ctx context.Context) error {
	cfg := h.cfg
	if strings.TrimSpace(cfg.ReadyURL) == "" {
		return nil
	}
	readyTimeout := cfg.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = time.Minute
	}
	interval := cfg.ReadyInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	client := &http.Client{Timeout: 2 * time.Second}
	readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-readyCtx.Done():
			if lastErr != nil {
				return fmt.Errorf("process: %s not ready after %s: %w", cfg.Name, readyTimeout, lastErr)
			}
			return fmt.Errorf("process: %s not ready after %s: %w", cfg.Name, readyTimeout, readyCtx.Err())
		case <-h.done:
			return fmt.Errorf("process: %s exited before reporting ready: %w", cfg.Name, h.waitError())
		case <-ticker.C:
			req, err := http.NewRequestWithContext(readyCtx, http.MethodGet, cfg.ReadyURL, nil)
			if err != nil {
				return fmt.Errorf("process: build readiness request for %s: %w", cfg.Name, err)
			}
			resp, err := client.Do(req)
			if err != nil {
				lastErr = err
				continue
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusInternalServerError {
				return nil
			}
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
	}
}

func (h *Handle) waitError() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.waitErr
}

// exitError filters out exits caused by our own interrupt or kill.
func (h *Handle) exitError() error {
	err := h.waitError()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		return nil
	}
	return err
}

// LookPath resolves an executable through the system PATH.
func LookPath(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("process: binary name required")
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("process: locate %s: %w", name, err)
	}
	return filepath.Clean(path), nil
}
