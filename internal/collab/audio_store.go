package collab

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// AudioStore persists synthesized and submitted audio on local disk,
// content-addressed, and hands back the URL path the router serves it under.
type AudioStore struct {
	dir string
}

func NewAudioStore(dir string) (*AudioStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &AudioStore{dir: dir}, nil
}

// Save writes the clip if it is not already present and returns its public
// URL path. Content addressing makes repeat saves of the same bytes no-ops,
// which keeps the scheduler's retry paths idempotent.
func (s *AudioStore) Save(audio []byte) (string, error) {
	sum := sha256.Sum256(audio)
	name := hex.EncodeToString(sum[:16]) + ".mp3"
	path := filepath.Join(s.dir, name)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, audio, 0o644); err != nil {
			return "", fmt.Errorf("failed to write audio file: %w", err)
		}
	}

	return "/media/" + name, nil
}

// Dir returns the backing directory, for the router's file server.
func (s *AudioStore) Dir() string {
	return s.dir
}
