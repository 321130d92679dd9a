package service

import (
	"context"
	"time"

	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/errs"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/model"
	bookRepo "github.com/Astemirdum/bookshelf-service/bookshelf/internal/repository"
	"github.com/Astemirdum/bookshelf-service/pkg/validate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type EventPublisher interface {
	Publish(ctx context.Context, event model.BookEvent) error
}

type Service struct {
	log       *zap.Logger
	repo      bookRepo.Repository
	validator *validate.CustomValidator
	events    EventPublisher
	now       func() time.Time
	newID     func() string
}

type Option func(s *Service)

// WithEvents enables lifecycle events. A nil publisher disables them.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func NewService(repo bookRepo.Repository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:       log.Named("service"),
		repo:      repo,
		validator: validate.NewCustomValidator(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateBook(ctx context.Context, in model.BookInput) (string, error) {
	if err := s.validate(in); err != nil {
		observe(opCreate, err)
		return "", err
	}

	now := s.now()
	book := model.Book{
		ID:         s.newID(),
		InsertedAt: now,
		UpdatedAt:  now,
	}
	book.Apply(in)

	if err := s.repo.Create(ctx, book); err != nil {
		observe(opCreate, err)
		return "", err
	}
	if _, err := s.repo.Get(ctx, book.ID); err != nil {
		s.log.Error("created book is missing", zap.String("id", book.ID), zap.Error(err))
		observe(opCreate, errs.ErrInsertFailed)
		return "", errors.Wrap(errs.ErrInsertFailed, err.Error())
	}

	observe(opCreate, nil)
	s.refreshGauge(ctx)
	s.publish(ctx, model.EventBookCreated, book.ID)
	return book.ID, nil
}

// ListBooks returns full records matching f in insertion order.
// A name filter with no matches is reported as errs.ErrNotFound.
func (s *Service) ListBooks(ctx context.Context, f model.Filter) ([]model.Book, error) {
	books, err := s.repo.List(ctx, f.Match)
	if err != nil {
		observe(opList, err)
		return nil, err
	}
	if f.Kind == model.FilterByName && len(books) == 0 {
		observe(opList, errs.ErrNotFound)
		return nil, errs.ErrNotFound
	}
	observe(opList, nil)
	return books, nil
}

func (s *Service) ListBookSummaries(ctx context.Context) ([]model.BookSummary, error) {
	books, err := s.repo.List(ctx, nil)
	if err != nil {
		observe(opList, err)
		return nil, err
	}
	summaries := make([]model.BookSummary, 0, len(books))
	for _, b := range books {
		summaries = append(summaries, b.Summarize())
	}
	observe(opList, nil)
	return summaries, nil
}

func (s *Service) GetBook(ctx context.Context, id string) (model.Book, error) {
	book, err := s.repo.Get(ctx, id)
	observe(opGet, err)
	return book, err
}

func (s *Service) UpdateBook(ctx context.Context, id string, in model.BookInput) (model.Book, error) {
	book, err := s.repo.Update(ctx, id, func(book *model.Book) error {
		if err := s.validate(in); err != nil {
			return err
		}
		book.Apply(in)
		// updatedAt must move forward even on a coarse clock
		now := s.now()
		if !now.After(book.UpdatedAt) {
			now = book.UpdatedAt.Add(time.Nanosecond)
		}
		book.UpdatedAt = now
		return nil
	})
	observe(opUpdate, err)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(ctx, model.EventBookUpdated, id)
	return book, nil
}

func (s *Service) DeleteBook(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	observe(opDelete, err)
	if err != nil {
		return err
	}
	s.refreshGauge(ctx)
	s.publish(ctx, model.EventBookDeleted, id)
	return nil
}

// validate maps validator failures onto the catalog's sentinel errors.
func (s *Service) validate(in model.BookInput) error {
	err := s.validator.Validate(in)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	for _, fe := range vErrs {
		if fe.Field() == "Name" {
			return errs.ErrMissingName
		}
	}
	for _, fe := range vErrs {
		if fe.Tag() == "min" {
			return errs.ErrNegativePages
		}
	}
	for _, fe := range vErrs {
		if fe.Field() == "ReadPage" {
			return errs.ErrInvalidPageRange
		}
	}
	return err
}

func (s *Service) publish(ctx context.Context, typ model.EventType, id string) {
	if s.events == nil {
		return
	}
	event := model.BookEvent{Type: typ, BookID: id, OccurredAt: s.now()}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish event", zap.String("type", string(typ)), zap.String("id", id), zap.Error(err))
	}
}

func (s *Service) refreshGauge(ctx context.Context) {
	booksGauge.Set(float64(s.repo.Count(ctx)))
}
