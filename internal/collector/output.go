package collector

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Write renders entries to stdout when path is empty, otherwise to path.
// With a positive splitThreshold larger documents are split into chunks
// named stem-2.ext, stem-3.ext and so on. The first chunk keeps path.
func Write(entries []Entry, path string, splitThreshold int) ([]string, error) {
	return write(os.Stdout, entries, path, splitThreshold)
}

func write(stdout io.Writer, entries []Entry, path string, splitThreshold int) ([]string, error) {
	if path == "" {
		data, err := Encode(entries)
		if err != nil {
			return nil, err
		}
		if _, err := stdout.Write(data); err != nil {
			return nil, fmt.Errorf("write stdout: %w", err)
		}
		return nil, nil
	}

	if splitThreshold <= 0 || len(entries) <= splitThreshold {
		if err := writeFile(path, entries); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	var written []string
	for i := 0; i*splitThreshold < len(entries); i++ {
		start := i * splitThreshold
		end := min(start+splitThreshold, len(entries))
		target := ChunkPath(path, i)
		if err := writeFile(target, entries[start:end]); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	log.Info().Int("files", len(written)).Int("threshold", splitThreshold).Msg("Split output")
	return written, nil
}

// ChunkPath returns the path of the zero-based chunk index.
func ChunkPath(path string, index int) string {
	if index == 0 {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s-%d%s", stem, index+1, ext)
}

func writeFile(path string, entries []Entry) error {
	data, err := Encode(entries)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
