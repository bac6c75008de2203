package server

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/urpagin/wallsync/internal/server/store"
)

type Services struct {
	Store *store.Store
}

func NewServices(config *Config, db *sqlx.DB) (*Services, error) {
	imageStore, err := store.New(config.ImageDir, db)
	if err != nil {
		return nil, err
	}

	return &Services{
		Store: imageStore,
	}, nil
}

func (s *Services) Start(ctx context.Context) error {
	// populates the image index from whatever is already on disk
	return s.Store.Start(ctx)
}

func (s *Services) Shutdown(ctx context.Context) error {
	return s.Store.Shutdown(ctx)
}
