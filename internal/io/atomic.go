package io

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Atomic file publication: write a sibling temp file, then rename over the
// target. A reader at any instant sees either the previous content or the
// new content, never a torn file. Used for snapshots, rotation state, and
// run-gate state.

// WriteFileAtomic writes data to path via temp file + rename, creating
// parent directories as needed.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// WriteJSONAtomic marshals v with indentation and publishes it atomically.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteLinesAtomic publishes a record stream (one line per record)
// atomically.
func WriteLinesAtomic(path string, lines [][]byte) error {
	var buf []byte
	for _, line := range lines {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return WriteFileAtomic(path, buf)
}
