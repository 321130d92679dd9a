package repository

import (
	"context"
	"sync"

	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/errs"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, book model.Book) error
	List(ctx context.Context, match func(model.Book) bool) ([]model.Book, error)
	Get(ctx context.Context, id string) (model.Book, error)
	Update(ctx context.Context, id string, apply func(book *model.Book) error) (model.Book, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) int
}

// repository keeps books in insertion order behind a single lock.
type repository struct {
	mu    sync.RWMutex
	books []model.Book
	log   *zap.Logger
}

func NewRepository(log *zap.Logger) *repository {
	return &repository{
		books: make([]model.Book, 0),
		log:   log.Named("repo"),
	}
}

func (r *repository) Create(_ context.Context, book model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(book.ID) != -1 {
		r.log.Error("Create: duplicate id", zap.String("id", book.ID))
		return errors.Wrapf(errs.ErrInsertFailed, "duplicate id %s", book.ID)
	}
	r.books = append(r.books, book)
	return nil
}

func (r *repository) List(_ context.Context, match func(model.Book) bool) ([]model.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	books := make([]model.Book, 0, len(r.books))
	for _, b := range r.books {
		if match == nil || match(b) {
			books = append(books, b)
		}
	}
	r.log.Debug("List", zap.Int("total", len(r.books)), zap.Int("matched", len(books)))
	return books, nil
}

func (r *repository) Get(_ context.Context, id string) (model.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i == -1 {
		return model.Book{}, errs.ErrNotFound
	}
	return r.books[i], nil
}

// Update runs apply on a copy of the stored book and commits it only if apply succeeds.
func (r *repository) Update(_ context.Context, id string, apply func(book *model.Book) error) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i == -1 {
		return model.Book{}, errs.ErrNotFound
	}
	book := r.books[i]
	if err := apply(&book); err != nil {
		return model.Book{}, err
	}
	book.ID = r.books[i].ID
	book.InsertedAt = r.books[i].InsertedAt
	r.books[i] = book
	return book, nil
}

func (r *repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i == -1 {
		return errs.ErrNotFound
	}
	r.books = append(r.books[:i], r.books[i+1:]...)
	return nil
}

func (r *repository) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.books)
}

func (r *repository) indexOf(id string) int {
	for i := range r.books {
		if r.books[i].ID == id {
			return i
		}
	}
	return -1
}
