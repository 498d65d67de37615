package testutils

import (
	"fmt"

	"github.com/spf13/afero"

	"promptvault/models"
	"promptvault/storage"
)

// NewMemoryVault builds a vault repository and registry store on an
// in-memory filesystem, the swappable fake the persistence layer is
// designed around.
func NewMemoryVault() (afero.Fs, *storage.VaultRepository, *storage.RegistryStore) {
	fs := afero.NewMemMapFs()
	repo := storage.NewVaultRepository(fs, "/vault")
	repo.EnsureVault()
	store := storage.NewRegistryStore(fs, "/data")
	return fs, repo, store
}

// SampleVersions builds a version list, newest first, from content strings.
func SampleVersions(contents ...string) []models.PromptVersion {
	versions := make([]models.PromptVersion, 0, len(contents))
	for i, content := range contents {
		versions = append(versions, models.PromptVersion{
			Date:    SampleDate(i),
			Content: content,
		})
	}
	return versions
}

// SampleDate returns a deterministic, unique RFC3339 date for fixtures.
func SampleDate(i int) string {
	return fmt.Sprintf("2024-01-01T00:00:%02dZ", i%60)
}
