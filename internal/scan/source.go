package scan

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// Source delivers decoded scanner text one scan at a time. Next returns
// io.EOF once the source is exhausted.
type Source interface {
	Next(ctx context.Context) (string, error)
}

type line struct {
	text string
	err  error
}

// LineSource reads newline-terminated scans from a keyboard-emulating
// scanner or any other reader. Blank lines are skipped.
type LineSource struct {
	r     io.Reader
	once  sync.Once
	lines chan line
}

func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r, lines: make(chan line)}
}

func (s *LineSource) start() {
	go func() {
		defer close(s.lines)
		sc := bufio.NewScanner(s.r)
		for sc.Scan() {
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			s.lines <- line{text: text}
		}
		if err := sc.Err(); err != nil {
			s.lines <- line{err: err}
		}
	}()
}

// Next blocks until a scan arrives or ctx is done. The reader goroutine stays
// parked on its pending send if the caller stops consuming.
func (s *LineSource) Next(ctx context.Context) (string, error) {
	s.once.Do(s.start)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}
