// Package encoder wraps a long-running ffmpeg subprocess that transcodes an
// AudioInput into a constant-bitrate MP3 stream paced at wall-clock real
// time. It is grounded on the subprocess + pipe pattern of
// server/ws_stream.go and core/audio/ffmpeg_processor.go in the teacher
// repo, reworked so encoder lifecycle is message passing into the caller's
// serial loop instead of callbacks, removing the need for re-entrancy guards
// at this layer.
package encoder

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
)

// EventType tags the kind of lifecycle Event the encoder reader emits.
type EventType int

const (
	EventStarted EventType = iota
	EventData
	EventEnd
	EventError
)

// Event is one message on a Pipeline's Events channel. The caller (the
// Broadcast Engine) is expected to consume these from a single serial loop.
type Event struct {
	Type  EventType
	PID   int
	Chunk []byte
	Err   error
}

// readBufSize is the chunk size read from the encoder's stdout pipe per Data
// event.
const readBufSize = 4096

// Pipeline is one live encoder subprocess. Only one Pipeline exists at a
// time for the whole broadcast engine.
type Pipeline struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	events chan Event

	mu     sync.Mutex
	killed bool
}

// Events returns the channel of lifecycle Events for this pipeline.
func (p *Pipeline) Events() <-chan Event {
	return p.events
}

// Start launches ffmpeg against input and begins streaming Events. The
// caller must eventually call Kill, even after observing EventEnd or
// EventError, to reap the subprocess.
func Start(ffmpegPath, bitrate string, input AudioInput) (*Pipeline, error) {
	args := buildArgs(bitrate, input)
	cmd := exec.Command(ffmpegPath, args...)

	var stdin io.WriteCloser
	if input.Kind == InputStream {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("encoder: stdin pipe: %w", err)
		}
		stdin = pipe
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("encoder: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("encoder: start: %w", err)
	}

	p := &Pipeline{
		cmd:    cmd,
		stdin:  stdin,
		events: make(chan Event, 8),
	}

	if input.Kind == InputStream {
		go p.pumpStdin(stdin, input.Stream)
	}

	go p.readLoop(stdout)

	p.events <- Event{Type: EventStarted, PID: cmd.Process.Pid}
	return p, nil
}

func buildArgs(bitrate string, input AudioInput) []string {
	var args []string

	if input.Kind == InputURL && input.IsHLS {
		args = append(args, "-protocol_whitelist", "file,http,https,tcp,tls,crypto")
	}
	if input.Kind == InputURL && len(input.Headers) > 0 {
		var sb strings.Builder
		for k, v := range input.Headers {
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(v)
			sb.WriteString("\r\n")
		}
		args = append(args, "-headers", sb.String())
	}

	switch input.Kind {
	case InputURL:
		args = append(args, "-re", "-i", input.URL)
	default:
		args = append(args, "-re", "-i", "pipe:0")
	}

	args = append(args,
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", bitrate,
		"-ar", "44100",
		"-f", "mp3",
		"pipe:1",
	)
	return args
}

func (p *Pipeline) pumpStdin(stdin io.WriteCloser, src io.ReadCloser) {
	defer stdin.Close()
	defer src.Close()
	io.Copy(stdin, src)
}

func (p *Pipeline) readLoop(stdout io.ReadCloser) {
	buf := make([]byte, readBufSize)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.events <- Event{Type: EventData, Chunk: chunk}
		}
		if err != nil {
			if err == io.EOF {
				p.events <- Event{Type: EventEnd}
			} else {
				p.events <- Event{Type: EventError, Err: err}
			}
			return
		}
	}
}

// Kill terminates the subprocess immediately and reaps it. Safe to call
// more than once.
func (p *Pipeline) Kill() {
	p.mu.Lock()
	if p.killed {
		p.mu.Unlock()
		return
	}
	p.killed = true
	p.mu.Unlock()

	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	go p.cmd.Wait()
}

// Suspend sends SIGSTOP to the subprocess, freezing encoding without closing
// pipes, and returns the signal error if delivery fails. It uses
// syscall.SIGSTOP directly, so this package builds only on platforms whose
// syscall package defines that signal (not on Windows).
func (p *Pipeline) Suspend() error {
	if p.cmd.Process == nil {
		return fmt.Errorf("encoder: process not running")
	}
	return p.cmd.Process.Signal(syscall.SIGSTOP)
}

// Resume sends the corresponding continue signal.
func (p *Pipeline) Resume() error {
	if p.cmd.Process == nil {
		return fmt.Errorf("encoder: process not running")
	}
	return p.cmd.Process.Signal(syscall.SIGCONT)
}

// PID returns the subprocess's OS process id.
func (p *Pipeline) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
