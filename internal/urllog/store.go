package urllog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileName is the log file kept inside the processed-images folder.
const FileName = "image_urls.txt"

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("url log closed")

type request struct {
	url   string // empty for reads
	reply chan result
}

type result struct {
	urls []string
	err  error
}

// Store is an append-only, one-URL-per-line log. A single goroutine owns the
// file; appends and reads are serialized through it.
type Store struct {
	path string
	reqs chan request
	done chan struct{}
	once sync.Once
}

// Open starts the writer goroutine for <dir>/image_urls.txt.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create url log directory: %w", err)
	}

	s := &Store{
		path: filepath.Join(dir, FileName),
		reqs: make(chan request),
		done: make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// Path returns the log file location.
func (s *Store) Path() string {
	return s.path
}

// Append adds url as a new line.
func (s *Store) Append(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("empty url")
	}
	_, err := s.do(ctx, request{url: url})
	return err
}

// List returns all non-blank lines in order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.do(ctx, request{})
}

// Close stops the writer goroutine. It is safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) do(ctx context.Context, req request) ([]string, error) {
	select {
	case <-s.done:
		return nil, ErrClosed
	default:
	}

	req.reply = make(chan result, 1)
	select {
	case s.reqs <- req:
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.urls, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) loop() {
	for {
		select {
		case <-s.done:
			return
		case req := <-s.reqs:
			if req.url == "" {
				urls, err := ReadFile(s.path)
				req.reply <- result{urls: urls, err: err}
				continue
			}
			req.reply <- result{err: s.appendLine(req.url)}
		}
	}
}

func (s *Store) appendLine(url string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open url log: %w", err)
	}
	if _, err := f.WriteString(url + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append url: %w", err)
	}
	return f.Close()
}

// ReadFile reads a URL log directly. A missing file yields no URLs.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open url log: %w", err)
	}
	defer f.Close()

	urls := []string{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url log: %w", err)
	}
	return urls, nil
}
