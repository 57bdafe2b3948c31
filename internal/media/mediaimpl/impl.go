package mediaimpl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/platefeed/stories/internal/domain"
	"github.com/platefeed/stories/internal/media"
	mediarepo "github.com/platefeed/stories/internal/repositories/media"
	"github.com/platefeed/stories/pkg/config"
	"github.com/platefeed/stories/pkg/logger"
	"github.com/platefeed/stories/pkg/retry"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config    *config.Config
	Logger    logger.Logger
	MediaRepo mediarepo.Repository
}

type StoreImpl struct {
	Config    *config.Config
	Logger    logger.Logger
	MediaRepo mediarepo.Repository
}

func New(opts Opts) (*StoreImpl, error) {
	if err := os.MkdirAll(opts.Config.Media.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &StoreImpl{
		Config:    opts.Config,
		Logger:    opts.Logger,
		MediaRepo: opts.MediaRepo,
	}, nil
}

var _ media.Store = (*StoreImpl)(nil)

func (s *StoreImpl) Upload(ctx context.Context, fileName string, kind domain.MediaKind, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", fileName, err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	name := hash + filepath.Ext(fileName)
	url := s.Config.Media.BaseURL + "/" + name

	if existing, err := s.MediaRepo.GetByHash(ctx, hash); err == nil {
		s.Logger.Debug("Upload already stored", "hash", hash)
		return existing.URL, nil
	}

	err = retry.Do(ctx, s.Logger, "media upload", func() error {
		return os.WriteFile(filepath.Join(s.Config.Media.Root, name), data, 0o644)
	}, retry.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to store upload %s: %w", fileName, err)
	}

	if err := s.MediaRepo.Create(ctx, mediarepo.Record{Hash: hash, URL: url, Kind: kind}); err != nil {
		return "", err
	}

	s.Logger.Info("Stored media upload", "file", fileName, "hash", hash, "kind", string(kind))
	return url, nil
}
