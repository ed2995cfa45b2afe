package database

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/ds124wfegd/imagecaption/internal/pkg/storage"
)

type fileSessionRepository struct {
	storage storage.FileStorage
}

func NewFileSessionRepository(storage storage.FileStorage) SessionRepository {
	return &fileSessionRepository{storage: storage}
}

func (r *fileSessionRepository) Save(_ context.Context, session *entity.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return r.storage.Save(r.getSessionPath(session.ID), bytes.NewReader(data))
}

func (r *fileSessionRepository) FindByID(_ context.Context, id string) (*entity.Session, error) {
	path := r.getSessionPath(id)
	if !r.storage.Exists(path) {
		return nil, nil
	}

	reader, err := r.storage.Get(path)
	if err != nil {
		// Файл мог быть удалён между проверкой и открытием
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer reader.Close()

	var session entity.Session
	if err := json.NewDecoder(reader).Decode(&session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *fileSessionRepository) Delete(_ context.Context, id string) error {
	return r.storage.Delete(r.getSessionPath(id))
}

func (r *fileSessionRepository) getSessionPath(id string) string {
	return filepath.Join("sessions", id+".json")
}
