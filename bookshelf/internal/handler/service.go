package handler

import (
	"context"

	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/model"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, in model.BookInput) (string, error)
	ListBooks(ctx context.Context, f model.Filter) ([]model.Book, error)
	ListBookSummaries(ctx context.Context) ([]model.BookSummary, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	UpdateBook(ctx context.Context, id string, in model.BookInput) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
}

var _ BookService = (*service.Service)(nil)
