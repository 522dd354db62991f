// Package preflight probes the application under test before a browser is
// launched: the frontend landing route, the backend health endpoint and the
// backend realtime socket.
package preflight

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/common"
)

// Probe names
const (
	ProbeFrontend = "frontend"
	ProbeBackend  = "backend"
	ProbeSocket   = "socket"
)

// engine.io open packet type; the server sends it first on a new socket
const engineOpenPacket = "0"

// Probe is the outcome of one reachability check
type Probe struct {
	Name     string
	Target   string
	OK       bool
	Skipped  bool
	Status   int // HTTP status, 0 for the socket probe
	Detail   string
	Duration time.Duration
}

// Result collects the probes in execution order
type Result struct {
	Probes []Probe
}

// OK reports whether every probe that ran succeeded
func (r *Result) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the probes that ran and failed
func (r *Result) Failed() []Probe {
	var failed []Probe
	for _, probe := range r.Probes {
		if !probe.Skipped && !probe.OK {
			failed = append(failed, probe)
		}
	}
	return failed
}

// Checker runs the probes with a shared HTTP client and websocket dialer
type Checker struct {
	target  common.TargetConfig
	config  common.PreflightConfig
	client  *http.Client
	dialer  *websocket.Dialer
	logger  arbor.ILogger
	timeout time.Duration
}

// NewChecker creates a checker for the configured target
func NewChecker(target common.TargetConfig, config common.PreflightConfig, logger arbor.ILogger) *Checker {
	timeout := config.TimeoutDuration()
	return &Checker{
		target:  target,
		config:  config,
		client:  &http.Client{Timeout: timeout},
		dialer:  &websocket.Dialer{HandshakeTimeout: timeout},
		logger:  logger,
		timeout: timeout,
	}
}

// Check runs every probe. Probes never short-circuit so the report shows the
// full picture of what is down.
func (c *Checker) Check(ctx context.Context) *Result {
	result := &Result{}

	result.Probes = append(result.Probes, c.probeHTTP(ctx, ProbeFrontend, c.target.BaseURL, func(status int) bool {
		return status < http.StatusInternalServerError
	}))

	if c.target.BackendURL == "" {
		result.Probes = append(result.Probes,
			Probe{Name: ProbeBackend, Skipped: true, Detail: "no backend_url configured"},
			Probe{Name: ProbeSocket, Skipped: true, Detail: "no backend_url configured"},
		)
	} else {
		healthURL := common.JoinURL(c.target.BackendURL, c.config.HealthPath)
		result.Probes = append(result.Probes, c.probeHTTP(ctx, ProbeBackend, healthURL, func(status int) bool {
			return status >= 200 && status < 300
		}))
		result.Probes = append(result.Probes, c.probeSocket(ctx))
	}

	for _, probe := range result.Probes {
		c.logProbe(probe)
	}
	return result
}

func (c *Checker) probeHTTP(ctx context.Context, name, target string, accept func(int) bool) Probe {
	probe := Probe{Name: name, Target: target}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		probe.Detail = err.Error()
		probe.Duration = time.Since(start)
		return probe
	}

	resp, err := c.client.Do(req)
	if err != nil {
		probe.Detail = err.Error()
		probe.Duration = time.Since(start)
		return probe
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	probe.Status = resp.StatusCode
	probe.OK = accept(resp.StatusCode)
	probe.Detail = resp.Status
	probe.Duration = time.Since(start)
	return probe
}

func (c *Checker) probeSocket(ctx context.Context) Probe {
	start := time.Now()
	probe := Probe{Name: ProbeSocket}

	socketURL, err := SocketURL(c.target.BackendURL, c.config.SocketPath)
	if err != nil {
		probe.Detail = err.Error()
		return probe
	}
	probe.Target = socketURL

	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(dialCtx, socketURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		probe.Detail = err.Error()
		probe.Duration = time.Since(start)
		return probe
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(c.timeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		probe.Detail = fmt.Sprintf("no open packet: %v", err)
		probe.Duration = time.Since(start)
		return probe
	}

	packet := string(message)
	if !strings.HasPrefix(packet, engineOpenPacket) {
		probe.Detail = fmt.Sprintf("unexpected first packet %q", truncate(packet, 40))
		probe.Duration = time.Since(start)
		return probe
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	probe.OK = true
	probe.Detail = "open packet received"
	probe.Duration = time.Since(start)
	return probe
}

func (c *Checker) logProbe(probe Probe) {
	if c.logger == nil {
		return
	}
	switch {
	case probe.Skipped:
		c.logger.Debug().
			Str("probe", probe.Name).
			Str("detail", probe.Detail).
			Msg("Preflight probe skipped")
	case probe.OK:
		c.logger.Info().
			Str("probe", probe.Name).
			Str("target", probe.Target).
			Dur("duration", probe.Duration).
			Msg("Preflight probe passed")
	default:
		c.logger.Warn().
			Str("probe", probe.Name).
			Str("target", probe.Target).
			Str("detail", probe.Detail).
			Msg("Preflight probe failed")
	}
}

// SocketURL derives the websocket URL from the backend HTTP URL
func SocketURL(backendURL, socketPath string) (string, error) {
	u, err := url.Parse(common.JoinURL(backendURL, socketPath))
	if err != nil {
		return "", fmt.Errorf("invalid socket URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported backend scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
