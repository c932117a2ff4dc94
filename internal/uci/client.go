// Package uci drives one external UCI chess engine process over its
// line-oriented text protocol and exposes a synchronous analysis call.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

// State is the client's connection state.
type State int

const (
	StateDisconnected State = iota
	StateIdle
	StateAnalyzing
	StateErrored
)

const (
	defaultConnectTimeout = 10 * time.Second
	readyTimeout          = 5 * time.Second
	defaultAnalyzeTimeout = 5 * time.Minute
	stopGrace             = 2 * time.Second
	quitGrace             = 2 * time.Second
	termGrace             = 2 * time.Second
	killGrace             = 2 * time.Second

	lineBufferSize = 256
)

// Config configures a Client.
type Config struct {
	// EnginePath is the engine binary, Args its extra arguments.
	EnginePath string
	Args       []string

	// Options are applied with "setoption" during Connect.
	Options map[string]string

	// ConnectTimeout bounds the initial handshake.
	ConnectTimeout time.Duration
}

// Client manages exactly one engine process. At most one analysis may be in
// flight per client instance.
type Client struct {
	cfg Config

	mu     sync.Mutex
	state  State
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	waitCh chan error
	name   string
}

// NewClient creates a disconnected client.
func NewClient(cfg Config) *Client {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	return &Client{cfg: cfg}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Name returns the engine identity from the "id name" handshake line, falling
// back to the binary name.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.name != "" {
		return c.name
	}
	return filepath.Base(c.cfg.EnginePath)
}

// Connect launches the engine process, performs the UCI handshake and applies
// the configured engine options. Fails with ErrConnection if the process
// cannot be spawned or exits during the handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected && c.state != StateErrored {
		c.mu.Unlock()
		return errors.New("client is already connected")
	}
	c.mu.Unlock()

	cmd := exec.Command(c.cfg.EnginePath, c.cfg.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: failed to get stdin pipe: %v", ErrConnection, err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: failed to get stdout pipe: %v", ErrConnection, err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: failed to get stderr pipe: %v", ErrConnection, err)
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to start engine process: %v", ErrConnection, err)
	}

	slog.Debug("Engine process started", "path", c.cfg.EnginePath, "pid", cmd.Process.Pid)

	lines := make(chan string, lineBufferSize)
	go readLines(stdout, lines)
	go drainStderr(stderr)

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()

	c.mu.Lock()
	c.cmd = cmd
	c.stdin = stdin
	c.lines = lines
	c.waitCh = waitCh
	c.state = StateIdle
	c.mu.Unlock()

	if err = c.handshake(ctx); err != nil {
		c.fail()
		return err
	}

	return nil
}

// handshake performs uci/uciok, applies options and waits for readyok.
func (c *Client) handshake(ctx context.Context) error {
	if err := c.send("uci"); err != nil {
		return err
	}

	deadline := time.NewTimer(c.cfg.ConnectTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: no uciok within %s", ErrTimeout, c.cfg.ConnectTimeout)
		case line, ok := <-c.lines:
			if !ok {
				return fmt.Errorf("%w: engine exited during handshake", ErrConnection)
			}

			if name, found := strings.CutPrefix(line, "id name "); found {
				c.mu.Lock()
				c.name = strings.TrimSpace(name)
				c.mu.Unlock()
			}

			if strings.HasPrefix(line, "uciok") {
				return c.applyOptions()
			}
		}
	}
}

func (c *Client) applyOptions() error {
	names := make([]string, 0, len(c.cfg.Options))
	for name := range c.cfg.Options {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		command := fmt.Sprintf("setoption name %s value %s", name, c.cfg.Options[name])
		if err := c.send(command); err != nil {
			return err
		}
	}

	if err := c.send("isready"); err != nil {
		return err
	}

	if _, err := c.WaitFor("readyok", readyTimeout); err != nil {
		return err
	}

	return nil
}

// WaitFor reads engine output until a line containing token arrives. Fails
// with ErrTimeout if the token is not seen in time.
func (c *Client) WaitFor(token string, timeout time.Duration) (string, error) {
	c.mu.Lock()
	lines := c.lines
	c.mu.Unlock()

	if lines == nil {
		return "", ErrNotConnected
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			return "", fmt.Errorf("%w: %q not seen within %s", ErrTimeout, token, timeout)
		case line, ok := <-lines:
			if !ok {
				return "", fmt.Errorf("%w: engine output closed", ErrConnection)
			}

			if strings.Contains(line, token) {
				return line, nil
			}
		}
	}
}

// Analyze runs one analysis. Valid only while idle: a concurrent call fails
// with ErrEngineBusy and does not disturb the in-flight request.
func (c *Client) Analyze(ctx context.Context, fen string, opts AnalyzeOptions) (*AnalysisResult, error) {
	if opts.Depth <= 0 && opts.MoveTimeMs <= 0 {
		return nil, errors.New("analyze needs a depth or a time budget")
	}

	c.mu.Lock()
	switch c.state {
	case StateAnalyzing:
		c.mu.Unlock()
		return nil, ErrEngineBusy
	case StateIdle:
		c.state = StateAnalyzing
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		return nil, ErrNotConnected
	}

	defer func() {
		c.mu.Lock()
		if c.state == StateAnalyzing {
			c.state = StateIdle
		}
		c.mu.Unlock()
	}()

	if err := c.prepare(fen, opts); err != nil {
		return nil, err
	}

	result, err := c.collect(ctx, fen, opts)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// prepare resets the engine and sends the position and go commands.
func (c *Client) prepare(fen string, opts AnalyzeOptions) error {
	if err := c.send("ucinewgame"); err != nil {
		return err
	}

	if err := c.send("isready"); err != nil {
		return err
	}

	if _, err := c.WaitFor("readyok", readyTimeout); err != nil {
		return err
	}

	if opts.VariationCount > 1 {
		if err := c.send(fmt.Sprintf("setoption name MultiPV value %d", opts.VariationCount)); err != nil {
			return err
		}
	}

	if err := c.send("position fen " + fen); err != nil {
		return err
	}

	goCommand := "go"
	if opts.Depth > 0 {
		goCommand += fmt.Sprintf(" depth %d", opts.Depth)
	}
	if opts.MoveTimeMs > 0 {
		goCommand += fmt.Sprintf(" movetime %d", opts.MoveTimeMs)
	}

	return c.send(goCommand)
}

// collect accumulates info lines until bestmove arrives.
func (c *Client) collect(ctx context.Context, fen string, opts AnalyzeOptions) (*AnalysisResult, error) {
	timeout := defaultAnalyzeTimeout
	if opts.MoveTimeMs > 0 {
		timeout = 2*time.Duration(opts.MoveTimeMs)*time.Millisecond + 10*time.Second
	}

	c.mu.Lock()
	lines := c.lines
	c.mu.Unlock()

	if lines == nil {
		return nil, ErrNotConnected
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	variations := make(map[int]Variation)
	result := &AnalysisResult{Position: fen}

	for {
		select {
		case <-ctx.Done():
			c.abortSearch()
			return nil, ctx.Err()
		case <-deadline.C:
			c.abortSearch()
			return nil, fmt.Errorf("%w: no bestmove within %s", ErrTimeout, timeout)
		case line, ok := <-lines:
			if !ok {
				c.fail()
				return nil, fmt.Errorf("%w: engine exited during analysis", ErrConnection)
			}

			ev := parseLine(line)
			switch ev.kind {
			case eventPVUpdate:
				variation := Variation{
					Rank:     ev.multiPV,
					Depth:    ev.depth,
					SelDepth: ev.selDepth,
					Moves:    ev.pv,
				}
				if ev.score != nil {
					variation.Score = *ev.score
				}
				variations[ev.multiPV] = variation

				if ev.nodes > 0 {
					result.Nodes = ev.nodes
				}
				if ev.nps > 0 {
					result.NodesPerSecond = ev.nps
				}
				if ev.timeMs > 0 {
					result.TimeMs = ev.timeMs
				}
			case eventCurrMove:
				slog.Debug("Engine current move", "move", ev.currMove, "number", ev.currMoveNumber)
			case eventString:
				slog.Debug("Engine info", "text", ev.text)
			case eventBestMove:
				result.BestMove = ev.bestMove
				result.Ponder = ev.ponder
				finishResult(result, variations)
				return result, nil
			}
		}
	}
}

// finishResult orders the accumulated variations by rank and fills the
// top-level fields from the rank-1 line.
func finishResult(result *AnalysisResult, variations map[int]Variation) {
	ranks := make([]int, 0, len(variations))
	for rank := range variations {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)

	for _, rank := range ranks {
		result.Variations = append(result.Variations, variations[rank])
	}

	result.MultiPV = len(result.Variations)

	if top, ok := variations[1]; ok {
		result.Depth = top.Depth
		result.SelDepth = top.SelDepth
		result.Score = top.Score
	}
}

// abortSearch tells the engine to stop and drains until its bestmove, so an
// abandoned search does not pollute the next analyze call.
func (c *Client) abortSearch() {
	if err := c.send("stop"); err != nil {
		return
	}

	if _, err := c.WaitFor("bestmove", stopGrace); err != nil {
		c.fail()
	}
}

// Disconnect shuts the engine down, escalating from quit to SIGTERM to a
// forcible kill. Best-effort: never returns an error and always leaves the
// client disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cmd := c.cmd
	stdin := c.stdin
	waitCh := c.waitCh
	c.cmd = nil
	c.stdin = nil
	c.lines = nil
	c.waitCh = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}

	if stdin != nil {
		_, _ = stdin.Write([]byte("quit\n"))
		_ = stdin.Close()
	}

	if waitQuiet(waitCh, quitGrace) {
		return
	}

	slog.Warn("Engine did not quit, sending SIGTERM", "pid", cmd.Process.Pid)
	_ = cmd.Process.Signal(syscall.SIGTERM)
	if waitQuiet(waitCh, termGrace) {
		return
	}

	slog.Warn("Engine did not terminate, killing", "pid", cmd.Process.Pid)
	_ = cmd.Process.Kill()
	waitQuiet(waitCh, killGrace)
}

// fail kills the process and moves the client to the errored state.
func (c *Client) fail() {
	c.mu.Lock()
	cmd := c.cmd
	c.cmd = nil
	c.stdin = nil
	c.lines = nil
	c.waitCh = nil
	c.state = StateErrored
	c.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func (c *Client) send(command string) error {
	c.mu.Lock()
	stdin := c.stdin
	c.mu.Unlock()

	if stdin == nil {
		return ErrNotConnected
	}

	slog.Debug("Engine stdin", "command", command)

	if _, err := stdin.Write([]byte(command + "\n")); err != nil {
		return fmt.Errorf("%w: failed to write %q: %v", ErrConnection, command, err)
	}

	return nil
}

// waitQuiet waits for the process exit for at most the grace period.
func waitQuiet(waitCh chan error, grace time.Duration) bool {
	if waitCh == nil {
		return true
	}

	select {
	case <-waitCh:
		return true
	case <-time.After(grace):
		return false
	}
}

// readLines forwards engine stdout line by line and closes the channel on EOF.
func readLines(stdout io.Reader, lines chan<- string) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		slog.Debug("Engine stdout", "line", line)
		lines <- line
	}
	close(lines)
}

func drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		slog.Debug("Engine stderr", "line", scanner.Text())
	}
}
