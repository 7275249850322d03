package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voice-bridge/internal/domain"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
	".ogg":  true,
}

// FileSource replays utterances dropped into a directory, in file name
// order. Audio clips go to speech recognition; .txt files are delivered as
// already transcribed text. Consumed files are renamed with a .processed
// suffix.
type FileSource struct {
	dir       string
	interval  time.Duration
	processed map[string]bool
	mu        sync.Mutex
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:       dir,
		interval:  500 * time.Millisecond,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextCommand(ctx context.Context) ([]byte, error) {
	if data, err := f.nextFile(); err != nil || data != nil {
		return data, err
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			data, err := f.nextFile()
			if err != nil {
				return nil, err
			}
			if data != nil {
				return data, nil
			}
		}
	}
}

func (f *FileSource) nextFile() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !audioExtensions[ext] && ext != ".txt" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true
		_ = os.Rename(path, path+".processed")

		if ext == ".txt" {
			text := strings.TrimSpace(string(data))
			if text == "" {
				continue
			}
			return []byte(domain.TextCommandPrefix + text), nil
		}
		return data, nil
	}

	return nil, nil
}
