package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/whochat/chat"
	"github.com/bitfsorg/whochat/config"
	"github.com/bitfsorg/whochat/envelope"
	"github.com/bitfsorg/whochat/lock"
	"github.com/bitfsorg/whochat/storage"
)

// openBackend opens the storage backend selected by cfg.
func openBackend(cfg config.Config) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendBolt:
		return storage.OpenBoltStore(cfg.BoltPath())
	case config.BackendFile, "":
		return storage.NewFileStore(cfg.ChatsDir())
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
	}
}

// openStore wires a chat store from cfg. The caller must close the
// returned backend.
func openStore(cfg config.Config, logger zerolog.Logger, observer chat.Observer) (*chat.Store, storage.Store, error) {
	backend, err := openBackend(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	codec, err := envelope.NewDefaultCodec(cfg.Envelope, envelope.Options{
		ScryptWorkFactor: cfg.ScryptWorkFactor,
	})
	if err != nil {
		return nil, nil, errors.Join(err, backend.Close())
	}

	locker, err := lock.New(cfg.Locking, cfg.LocksDir())
	if err != nil {
		return nil, nil, errors.Join(err, backend.Close())
	}

	opts := []chat.Option{
		chat.WithCap(cfg.ContentCap),
		chat.WithLocker(locker),
		chat.WithLogger(logger),
	}
	if observer != nil {
		opts = append(opts, chat.WithObserver(observer))
	}
	return chat.NewStore(backend, codec, opts...), backend, nil
}
