package logging

import (
	"bytes"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Writer turns engine progress output into log entries, one per line.
type Writer struct {
	mu     sync.Mutex
	logger *zap.Logger
	level  zapcore.Level
	buf    []byte
}

func NewWriter(logger *zap.Logger, level zapcore.Level) *Writer {
	return &Writer{logger: logger, level: level}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs a trailing partial line.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emit(string(w.buf))
	w.buf = nil
}

func (w *Writer) emit(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	if ce := w.logger.Check(w.level, line); ce != nil {
		ce.Write()
	}
}
