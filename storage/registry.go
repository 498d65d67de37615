package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"promptvault/models"
)

const (
	tagsBlobName   = "tags.json"
	groupsBlobName = "groups.json"
)

// RegistryStore persists the tag and group registries, each as one
// consolidated JSON blob under the data directory. Every save rewrites the
// whole collection; concurrent writers are last-write-wins, same as prompt
// files.
type RegistryStore struct {
	fs  afero.Fs
	dir string
}

func NewRegistryStore(fs afero.Fs, dir string) *RegistryStore {
	return &RegistryStore{fs: fs, dir: dir}
}

// LoadTags reads the tag registry. A missing blob is an empty registry, not
// an error.
func (s *RegistryStore) LoadTags() ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.readBlob(tagsBlobName, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// SaveTags writes the whole tag registry.
func (s *RegistryStore) SaveTags(tags []models.Tag) error {
	return s.writeBlob(tagsBlobName, tags)
}

// LoadGroups reads the group registry. A missing blob is an empty registry.
func (s *RegistryStore) LoadGroups() ([]models.Group, error) {
	var groups []models.Group
	if err := s.readBlob(groupsBlobName, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// SaveGroups writes the whole group registry.
func (s *RegistryStore) SaveGroups(groups []models.Group) error {
	return s.writeBlob(groupsBlobName, groups)
}

func (s *RegistryStore) readBlob(name string, out interface{}) error {
	path := s.path(name)
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return fmt.Errorf("stat registry %s: %w", name, err)
	}
	if !exists {
		return nil
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return fmt.Errorf("read registry %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode registry %s: %w", name, err)
	}
	return nil
}

func (s *RegistryStore) writeBlob(name string, in interface{}) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry %s: %w", name, err)
	}
	path := s.path(name)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write registry %s: %w", name, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("write registry %s: %w", name, err)
	}
	return nil
}

func (s *RegistryStore) path(name string) string {
	return filepath.Join(s.dir, name)
}
