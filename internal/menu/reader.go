package menu

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// LineReader reads lines from an input on a background goroutine so a menu
// can stop waiting when its context ends. Share one per input stream.
type LineReader struct {
	lines chan string
	err   error
}

// NewLineReader starts reading r.
func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{lines: make(chan string)}
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lr.lines <- strings.TrimSpace(sc.Text())
		}
		lr.err = sc.Err()
		close(lr.lines)
	}()
	return lr
}

// ReadLine returns the next trimmed line. It returns io.EOF once the input is
// exhausted and ctx.Err() when ctx ends first.
func (lr *LineReader) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lr.lines:
		if !ok {
			if lr.err != nil {
				return "", lr.err
			}
			return "", io.EOF
		}
		return line, nil
	}
}
