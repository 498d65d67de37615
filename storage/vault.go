package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"promptvault/models"
)

// VaultRepository persists one prompt per JSON file under the vault
// directory, keyed by prompt id. The filesystem is injected so tests can run
// against an in-memory fake.
type VaultRepository struct {
	fs  afero.Fs
	dir string
}

func NewVaultRepository(fs afero.Fs, dir string) *VaultRepository {
	return &VaultRepository{fs: fs, dir: dir}
}

// Dir returns the vault directory path.
func (r *VaultRepository) Dir() string {
	return r.dir
}

// EnsureVault creates the vault directory if absent. Idempotent and cheap to
// call repeatedly; failures are logged rather than surfaced because every
// write path reports its own error anyway.
func (r *VaultRepository) EnsureVault() {
	if err := r.fs.MkdirAll(r.dir, 0o755); err != nil {
		log.Printf("Warning: could not create vault directory %s: %v", r.dir, err)
	}
}

// LoadAll scans the vault and returns every prompt that parses and passes
// validation. Corrupt or malformed files are skipped with a warning; the
// returned order is arbitrary and callers apply their own sort.
func (r *VaultRepository) LoadAll() []models.Prompt {
	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		log.Printf("Warning: could not read vault directory %s: %v", r.dir, err)
		return nil
	}

	var prompts []models.Prompt
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		data, err := afero.ReadFile(r.fs, path)
		if err != nil {
			log.Printf("Warning: skipping unreadable vault file %s: %v", entry.Name(), err)
			continue
		}
		prompt, err := decodePrompt(data)
		if err != nil {
			log.Printf("Warning: skipping invalid vault file %s: %v", entry.Name(), err)
			continue
		}
		prompts = append(prompts, prompt)
	}
	return prompts
}

// Create validates and writes a new prompt file, stamping the server-owned
// fields. Writing over an existing id is last-write-wins by design; guarding
// against it is the caller's job.
func (r *VaultRepository) Create(prompt *models.Prompt) error {
	now := time.Now().UTC()
	prompt.CreatedAt = now
	prompt.UpdatedAt = now
	prompt.IsSynced = false
	if prompt.Notes == nil {
		prompt.Notes = []models.PromptNote{}
	}
	if prompt.Tags == nil {
		prompt.Tags = []string{}
	}

	if err := prompt.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(prompt, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prompt %s: %w", prompt.ID, err)
	}
	return r.writeFile(prompt.ID, data)
}

// Update reads the prompt file, shallow-merges partial over it (arrays are
// replaced wholesale, never deep-merged), re-validates, stamps updatedAt,
// forces isSynced false and writes back. The read-merge-write is not atomic
// across processes: two racing updates on the same id are last-write-wins.
func (r *VaultRepository) Update(id string, partial map[string]interface{}) (models.Prompt, error) {
	path := r.path(id)
	exists, err := afero.Exists(r.fs, path)
	if err != nil {
		return models.Prompt{}, fmt.Errorf("stat prompt %s: %w", id, err)
	}
	if !exists {
		return models.Prompt{}, fmt.Errorf("update prompt %s: %w", id, ErrNotFound)
	}

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return models.Prompt{}, fmt.Errorf("read prompt %s: %w", id, err)
	}

	raw := make(map[string]interface{})
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Prompt{}, fmt.Errorf("decode prompt %s: %w", id, err)
	}
	normalizeRawDocument(raw)

	for key, value := range partial {
		switch key {
		case "id", "createdAt":
			// immutable
		default:
			raw[key] = value
		}
	}
	raw["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	raw["isSynced"] = false

	merged, err := json.Marshal(raw)
	if err != nil {
		return models.Prompt{}, fmt.Errorf("encode prompt %s: %w", id, err)
	}

	var prompt models.Prompt
	if err := prompt.FromJSON(merged); err != nil {
		return models.Prompt{}, fmt.Errorf("decode merged prompt %s: %w", id, err)
	}
	if err := prompt.Validate(); err != nil {
		return models.Prompt{}, err
	}

	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return models.Prompt{}, fmt.Errorf("encode prompt %s: %w", id, err)
	}
	if err := r.writeFile(id, pretty); err != nil {
		return models.Prompt{}, err
	}
	return prompt, nil
}

// Remove deletes the prompt file.
func (r *VaultRepository) Remove(id string) error {
	path := r.path(id)
	exists, err := afero.Exists(r.fs, path)
	if err != nil {
		return fmt.Errorf("stat prompt %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("remove prompt %s: %w", id, ErrNotFound)
	}
	if err := r.fs.Remove(path); err != nil {
		return fmt.Errorf("remove prompt %s: %w", id, err)
	}
	return nil
}

func (r *VaultRepository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

// writeFile writes through a temp file and renames it into place, so a crash
// mid-write never leaves a half-written prompt behind.
func (r *VaultRepository) writeFile(id string, data []byte) error {
	path := r.path(id)
	tmp := path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prompt %s: %w", id, err)
	}
	if err := r.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("write prompt %s: %w", id, err)
	}
	return nil
}

// decodePrompt parses file bytes into a Prompt, applying the legacy schema
// normalization first and rejecting documents that fail validation.
func decodePrompt(data []byte) (models.Prompt, error) {
	raw := make(map[string]interface{})
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Prompt{}, err
	}
	normalizeRawDocument(raw)

	normalized, err := json.Marshal(raw)
	if err != nil {
		return models.Prompt{}, err
	}
	var prompt models.Prompt
	if err := prompt.FromJSON(normalized); err != nil {
		return models.Prompt{}, err
	}
	if err := prompt.Validate(); err != nil {
		return models.Prompt{}, err
	}
	return prompt, nil
}

// normalizeRawDocument migrates older on-disk shapes in place: a legacy
// "content" snapshot array becomes "versions", and tag object lists collapse
// to tag id lists. chatHistory passes through untouched.
func normalizeRawDocument(raw map[string]interface{}) {
	if versions, ok := raw["versions"].([]interface{}); !ok || len(versions) == 0 {
		if legacy, ok := raw["content"].([]interface{}); ok && len(legacy) > 0 {
			raw["versions"] = legacy
			delete(raw, "content")
		}
	}

	if tags, ok := raw["tags"].([]interface{}); ok {
		ids := make([]interface{}, 0, len(tags))
		changed := false
		for _, tag := range tags {
			if obj, ok := tag.(map[string]interface{}); ok {
				if id, ok := obj["id"].(string); ok {
					ids = append(ids, id)
				}
				changed = true
				continue
			}
			ids = append(ids, tag)
		}
		if changed {
			raw["tags"] = ids
		}
	}
}
