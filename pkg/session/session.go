// Package session runs a child process attached to a pseudo-terminal and
// drives it through expect/send interactions against its output stream.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"
)

// Expect failure modes. Both leave the session's remaining script
// meaningless; callers are expected to force-close the session.
var (
	// ErrTimeout is returned when the pattern did not appear within the wait bound.
	ErrTimeout = errors.New("session: expect timed out")
	// ErrEOF is returned when the stream ended before the pattern appeared.
	ErrEOF = errors.New("session: stream ended before match")
)

// closeGrace is how long Close waits for natural termination before
// killing the child.
const closeGrace = 5 * time.Second

// Options configures a spawned session.
type Options struct {
	// Env is the child's environment. Nil inherits the parent environment.
	Env []string
	// DisableEcho turns off terminal echo so sent input is not duplicated
	// in the observed output.
	DisableEcho bool
}

// Session is a child process attached to a pseudo-terminal.
// Not safe for concurrent use; the expected caller replays a script
// strictly sequentially.
type Session struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	chunks chan []byte
	buf    bytes.Buffer
	eof    bool
	exit   *int
	closed bool
}

// Spawn starts command under /bin/sh -c attached to a new pseudo-terminal.
// Failure to spawn is the one fatal error in this package: without a live
// process there is nothing to report on.
func Spawn(command string, opts Options) (*Session, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("spawn %q: %w", command, err)
	}

	if opts.DisableEcho {
		if err := disableEcho(ptmx); err != nil {
			ptmx.Close()
			cmd.Process.Kill()
			cmd.Wait()
			return nil, fmt.Errorf("disable echo: %w", err)
		}
	}

	s := &Session{cmd: cmd, ptmx: ptmx, chunks: make(chan []byte)}
	go s.read()
	return s, nil
}

// read streams terminal output to the expect loop. The channel is
// unbuffered so no chunk is lost when the stream ends; the goroutine
// exits once the terminal read fails (child gone or ptmx closed).
func (s *Session) read() {
	for {
		b := make([]byte, 4096)
		n, err := s.ptmx.Read(b)
		if n > 0 {
			s.chunks <- b[:n]
		}
		if err != nil {
			close(s.chunks)
			return
		}
	}
}

// Expect waits until p matches the accumulated output, the stream ends, or
// timeout elapses. A timeout <= 0 waits without bound. On a text match the
// buffer is consumed through the end of the match, so consecutive expects
// advance through the output.
func (s *Session) Expect(p Pattern, timeout time.Duration) error {
	if s.tryMatch(p) {
		return nil
	}
	if s.eof {
		if p.IsEOF() {
			return nil
		}
		return ErrEOF
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	for {
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				s.eof = true
				if p.IsEOF() {
					return nil
				}
				return ErrEOF
			}
			s.buf.Write(chunk)
			if s.tryMatch(p) {
				return nil
			}
		case <-deadline:
			return ErrTimeout
		}
	}
}

// tryMatch tests p against the buffered output and consumes through the
// match on success. The end-of-stream pattern never matches buffered data.
func (s *Session) tryMatch(p Pattern) bool {
	if p.IsEOF() {
		return false
	}
	loc := p.re.FindIndex(s.buf.Bytes())
	if loc == nil {
		return false
	}
	s.buf.Next(loc[1])
	return true
}

// SendLine writes line plus a line terminator to the child's terminal.
func (s *Session) SendLine(line string) error {
	if _, err := s.ptmx.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("send %q: %w", line, err)
	}
	return nil
}

// Buffered returns output received but not yet consumed by a match.
func (s *Session) Buffered() string {
	return s.buf.String()
}

// Close lets the child terminate naturally and records its exit status.
// It first waits for the output stream to end, so that hanging up the
// terminal cannot knock over a process that is about to exit cleanly.
// A child that outlives closeGrace is killed and its status left
// unavailable.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	stream := time.NewTimer(closeGrace)
	defer stream.Stop()
wait:
	for !s.eof {
		select {
		case _, ok := <-s.chunks:
			if !ok {
				s.eof = true
			}
			// output past the last expect is discarded
		case <-stream.C:
			break wait
		}
	}

	s.ptmx.Close()
	if !s.eof {
		s.cmd.Process.Kill()
		s.drain()
		s.cmd.Wait()
		return
	}

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case err := <-done:
		s.recordExit(err)
	case <-time.After(closeGrace):
		s.cmd.Process.Kill()
		<-done
	}
}

// ForceClose kills the child immediately. The exit status stays
// unavailable, as for any forced termination.
func (s *Session) ForceClose() {
	if s.closed {
		return
	}
	s.closed = true
	s.cmd.Process.Kill()
	s.ptmx.Close()
	s.drain()
	s.cmd.Wait()
}

// drain retires the reader goroutine, which may be blocked mid-send.
func (s *Session) drain() {
	go func() {
		for range s.chunks {
		}
	}()
}

// ExitStatus returns the child's exit code, or nil when it is unavailable
// (forced termination, or death by signal).
func (s *Session) ExitStatus() *int {
	return s.exit
}

func (s *Session) recordExit(err error) {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		code := s.cmd.ProcessState.ExitCode()
		s.exit = &code
	case errors.As(err, &exitErr):
		if code := exitErr.ExitCode(); code >= 0 {
			s.exit = &code
		}
	}
}
