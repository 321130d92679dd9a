package model

import (
	"encoding/json"
	"time"
)

type Book struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Year is stored and returned exactly as the client sent it.
	Year       json.RawMessage `json:"year,omitempty"`
	Author     string          `json:"author"`
	Summary    string          `json:"summary"`
	Publisher  string          `json:"publisher"`
	PageCount  int             `json:"pageCount"`
	ReadPage   int             `json:"readPage"`
	Finished   bool            `json:"finished"`
	Reading    bool            `json:"reading"`
	InsertedAt time.Time       `json:"insertedAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Apply replaces every caller-settable field and recomputes Finished.
func (b *Book) Apply(in BookInput) {
	b.Name = in.Name
	b.Year = append(json.RawMessage(nil), in.Year...)
	b.Author = in.Author
	b.Summary = in.Summary
	b.Publisher = in.Publisher
	b.PageCount = in.PageCount
	b.ReadPage = in.ReadPage
	b.Reading = in.Reading
	b.Finished = in.ReadPage == in.PageCount
}

func (b Book) Summarize() BookSummary {
	return BookSummary{
		ID:        b.ID,
		Name:      b.Name,
		Publisher: b.Publisher,
	}
}

type BookInput struct {
	Name      string          `json:"name" validate:"required"`
	Year      json.RawMessage `json:"year"`
	Author    string          `json:"author"`
	Summary   string          `json:"summary"`
	Publisher string          `json:"publisher"`
	PageCount int             `json:"pageCount" validate:"min=0"`
	ReadPage  int             `json:"readPage" validate:"min=0,ltefield=PageCount"`
	Reading   bool            `json:"reading"`
}

type BookSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
}

type CreateBookResponse struct {
	BookID string `json:"bookId"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
	StatusError   Status = "error"
)

type Response struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type EventType string

const (
	EventBookCreated EventType = "book.created"
	EventBookUpdated EventType = "book.updated"
	EventBookDeleted EventType = "book.deleted"
)

type BookEvent struct {
	Type       EventType `json:"type"`
	BookID     string    `json:"bookId"`
	OccurredAt time.Time `json:"occurredAt"`
}
