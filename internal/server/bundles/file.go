package bundles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/filex"
	"github.com/ledgerlock/ledgerlock/internal/server/models"
)

// FileRepository keeps one JSON file per account under a single directory.
// Writes go through filex.WriteFileAtomic, so a crash mid-write leaves the
// previous bundle intact; readers only ever see a complete file.
type FileRepository struct {
	dir string
}

// NewFileRepository creates the data directory if needed.
func NewFileRepository(dir string) (*FileRepository, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("bundle dir: %w", err)
	}
	return &FileRepository{dir: abs}, nil
}

func (r *FileRepository) path(accountID string) string {
	return filepath.Join(r.dir, accountID+".json")
}

func (r *FileRepository) Save(ctx context.Context, b *models.Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	if err := filex.WriteFileAtomic(r.path(b.AccountID), data, 0o660); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	return nil
}

func (r *FileRepository) Get(ctx context.Context, accountID string) (*models.Bundle, error) {
	data, err := os.ReadFile(r.path(accountID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("reading bundle: %w", err)
	}

	b := &models.Bundle{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	return b, nil
}

func (r *FileRepository) Delete(ctx context.Context, accountID string) error {
	err := os.Remove(r.path(accountID))
	if errors.Is(err, fs.ErrNotExist) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("removing bundle: %w", err)
	}
	return nil
}

func (r *FileRepository) Close() error { return nil }
