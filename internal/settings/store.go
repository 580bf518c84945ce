package settings

import (
	"os"
	"path/filepath"

	"codeberg.org/wrenvik/dutymond/internal/errors"
	"codeberg.org/wrenvik/dutymond/internal/logger"
	"gopkg.in/yaml.v3"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o600
)

// Store persists the device settings. Load is called once at startup; Save
// after every accepted mutation.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// record is the on-disk layout: a version tag plus every settings field.
type record struct {
	Version  string   `yaml:"version"`
	Settings Settings `yaml:",inline"`
}

type fileStore struct {
	path string
}

// NewFileStore returns a yaml-backed store at path.
func NewFileStore(path string) Store {
	return &fileStore{path: path}
}

// Load reads the persisted settings. A missing file, an unreadable record or
// a version mismatch yields factory defaults, re-persisted immediately.
func (s *fileStore) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info().Str("path", s.path).Msg("no settings file, writing factory defaults")
			return s.bootstrap()
		}
		return Settings{}, errors.Wrap(ErrStoreAccess, err)
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		logger.Warn().Err(err).Msg("settings file unreadable, resetting to factory defaults")
		return s.bootstrap()
	}

	if rec.Version != Version {
		logger.Warn().
			Str("found", rec.Version).
			Str("want", Version).
			Msg("settings version mismatch, resetting to factory defaults")
		return s.bootstrap()
	}

	if err := rec.Settings.Validate(); err != nil {
		logger.Warn().Err(err).Msg("persisted settings out of range, resetting to factory defaults")
		return s.bootstrap()
	}

	return rec.Settings, nil
}

// Save writes the full settings record atomically via a rename.
func (s *fileStore) Save(cfg Settings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(record{Version: Version, Settings: cfg})
	if err != nil {
		return errors.Wrap(ErrStoreEncode, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), defaultDirPerm); err != nil {
		return errors.Wrap(ErrStorePersist, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, defaultFilePerm); err != nil {
		return errors.Wrap(ErrStorePersist, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(ErrStorePersist, err)
	}

	return nil
}

func (s *fileStore) bootstrap() (Settings, error) {
	cfg := Default()
	if err := s.Save(cfg); err != nil {
		return Settings{}, err
	}

	return cfg, nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	Saved   []Settings
	Current Settings
	Err     error
}

// NewMemStore returns a MemStore seeded with factory defaults.
func NewMemStore() *MemStore {
	return &MemStore{Current: Default()}
}

func (m *MemStore) Load() (Settings, error) {
	if m.Err != nil {
		return Settings{}, m.Err
	}

	return m.Current, nil
}

func (m *MemStore) Save(cfg Settings) error {
	if m.Err != nil {
		return m.Err
	}
	m.Current = cfg
	m.Saved = append(m.Saved, cfg)

	return nil
}
