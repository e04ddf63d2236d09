// Package logstream provides the module-tagged diagnostic stream every
// pass writes its progress and warnings to: a thin wrapper over the
// standard library's log.Logger that prefixes each line with the
// emitting module's name, the way the original compiler's log(module)
// and err(module) tagged streams do.
package logstream

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	loggers           = make(map[string]*log.Logger)
)

// Stream is one module's tagged view onto the shared output. Info lines
// are marked with a leading '+', Err lines with a leading '!', matching
// the original log.h stream pair.
type Stream struct {
	module string
}

// For returns the tagged stream for module, ten characters wide and
// left-justified the way the original's std::setw(10) pads it.
func For(module string) *Stream {
	return &Stream{module: module}
}

func (s *Stream) logger() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	l, ok := loggers[s.module]
	if !ok {
		l = log.New(out, "", 0)
		loggers[s.module] = l
	}
	return l
}

func (s *Stream) Info(format string, args ...any) {
	s.logger().Printf("[+] [%-10s] %s", s.module, fmt.Sprintf(format, args...))
}

func (s *Stream) Err(format string, args ...any) {
	s.logger().Printf("[!] [%-10s] %s", s.module, fmt.Sprintf(format, args...))
}

// Disable swaps every stream's sink for io.Discard, turning the whole
// package into a no-op the way the original's DummyLogStream does when
// built without CONF_LOG_OUTPUT. Streams created after Disable is
// called pick up the discarding sink too.
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	out = io.Discard
	loggers = make(map[string]*log.Logger)
}

// Enable restores stderr as the sink for every stream, including
// streams created before the call.
func Enable() {
	mu.Lock()
	defer mu.Unlock()
	out = os.Stderr
	loggers = make(map[string]*log.Logger)
}
