package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/dshills/modbank/internal/module"
)

const (
	cacheMagic   = "modbank-cache"
	cacheVersion = 1
)

// Store reads and writes per-directory descriptor blobs under a cache root.
type Store struct {
	root string
}

// NewStore creates a store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// DefaultRoot returns the default cache root under the user cache directory.
func DefaultRoot() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "modbank")
	}
	return filepath.Join(base, "modbank")
}

// Load deserializes the blob associated with dir. Absence, corruption and
// version mismatch all yield an empty result; they only force rediscovery.
func (s *Store) Load(dir string) []*module.Plugin {
	data, err := os.ReadFile(s.fileFor(dir))
	if err != nil {
		return nil
	}

	// Cheap header sniff before committing to a full decode.
	if gjson.GetBytes(data, "magic").String() != cacheMagic ||
		gjson.GetBytes(data, "version").Int() != cacheVersion {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil
	}

	plugins := make([]*module.Plugin, 0, len(env.Plugins))
	for _, rec := range env.Plugins {
		p, err := rec.plugin()
		if err != nil {
			// A record the model rejects is corruption, not an error.
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins
}

// Lookup removes and returns the entry whose relative path matches and whose
// stored mtime and size equal the live file's. Each entry is returned at most
// once per scan; anything else returns nil and forces a real load.
func Lookup(entries *[]*module.Plugin, relPath string, mtime, size int64) *module.Plugin {
	for i, p := range *entries {
		if p.RelPath != relPath || p.Mtime != mtime || p.Size != size {
			continue
		}
		*entries = append((*entries)[:i], (*entries)[i+1:]...)
		return p
	}
	return nil
}

// Save overwrites dir's blob with the given descriptor set. The write is
// atomic: a temp file in the cache root is renamed over the target.
func (s *Store) Save(dir string, plugins []*module.Plugin) error {
	env := envelope{Magic: cacheMagic, Version: cacheVersion}
	for _, p := range plugins {
		env.Plugins = append(env.Plugins, newPluginRecord(p))
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", dir, err)
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("cache: creating root: %w", err)
	}

	target := s.fileFor(dir)
	tmp, err := os.CreateTemp(s.root, "cache-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: writing %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: closing %s: %w", target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("cache: replacing %s: %w", target, err)
	}
	return nil
}

// fileFor derives dir's blob path from the directory's absolute path.
func (s *Store) fileFor(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(s.root, hex.EncodeToString(sum[:8])+".json")
}
