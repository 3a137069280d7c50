package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/openshelf/openshelf-server/internal/config"
	"github.com/openshelf/openshelf-server/internal/logger"
	"github.com/openshelf/openshelf-server/internal/media/attachments"
	"github.com/openshelf/openshelf-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Storage.DataPath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Catalog store initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// AttachmentStorageHandle wraps the attachment storage for injection.
type AttachmentStorageHandle struct {
	*attachments.Storage
}

// ProvideAttachmentStorage provides the filesystem attachment storage.
func ProvideAttachmentStorage(i do.Injector) (*AttachmentStorageHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := attachments.NewStorage(cfg.Storage.UploadPath)
	if err != nil {
		return nil, err
	}

	log.Info("Attachment storage ready", "path", cfg.Storage.UploadPath)

	return &AttachmentStorageHandle{Storage: storage}, nil
}
