package handler

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/guildkeeper/internal/backup"
)

type BackupStore interface {
	List() ([]string, error)
	Load(name string) (backup.Snapshot, error)
}

type BackupHandler struct {
	store BackupStore
}

func NewBackupHandler(s BackupStore) *BackupHandler {
	return &BackupHandler{store: s}
}

// List: GET /v1/backups, новые первыми
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List()
	if err != nil {
		http.Error(w, "failed to list backups", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// Get: GET /v1/backups/{name}
func (h *BackupHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Load(chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, backup.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, fs.ErrNotExist):
		http.Error(w, "backup not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, "failed to read backup", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
