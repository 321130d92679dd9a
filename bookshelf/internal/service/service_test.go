package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/errs"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/model"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/repository"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/service"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BookEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e model.BookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	clock := &fakeClock{cur: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]service.Option{service.WithClock(clock.Now)}, opts...)
	log := zap.NewExample().Named("test")
	return service.NewService(repository.NewRepository(log), log, opts...)
}

func dune() model.BookInput {
	return model.BookInput{
		Name:      "Dune",
		Year:      json.RawMessage("1965"),
		Author:    "Frank Herbert",
		Summary:   "Spice",
		Publisher: "Chilton",
		PageCount: 400,
		ReadPage:  400,
		Reading:   false,
	}
}

func TestService_CreateBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		input   func() model.BookInput
		wantErr error
	}{
		{
			name:  "ok finished",
			input: dune,
		},
		{
			name: "ok unfinished",
			input: func() model.BookInput {
				in := dune()
				in.ReadPage = 10
				return in
			},
		},
		{
			name: "ok zero pages",
			input: func() model.BookInput {
				return model.BookInput{Name: "Empty"}
			},
		},
		{
			name: "err. missing name",
			input: func() model.BookInput {
				in := dune()
				in.Name = ""
				return in
			},
			wantErr: errs.ErrMissingName,
		},
		{
			name: "err. missing name wins over page range",
			input: func() model.BookInput {
				return model.BookInput{PageCount: 1, ReadPage: 2}
			},
			wantErr: errs.ErrMissingName,
		},
		{
			name: "err. readPage > pageCount",
			input: func() model.BookInput {
				in := dune()
				in.ReadPage = 401
				return in
			},
			wantErr: errs.ErrInvalidPageRange,
		},
		{
			name: "err. negative readPage",
			input: func() model.BookInput {
				in := dune()
				in.ReadPage = -1
				return in
			},
			wantErr: errs.ErrNegativePages,
		},
		{
			name: "err. negative pageCount",
			input: func() model.BookInput {
				in := dune()
				in.PageCount, in.ReadPage = -5, -10
				return in
			},
			wantErr: errs.ErrNegativePages,
		},
		{
			name: "ok string year kept verbatim",
			input: func() model.BookInput {
				in := dune()
				in.Year = json.RawMessage(`"circa 1965"`)
				return in
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newService(t)
			in := tt.input()

			id, err := svc.CreateBook(ctx, in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, id)
				books, err := svc.ListBookSummaries(ctx)
				require.NoError(t, err)
				require.Empty(t, books)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, id)

			book, err := svc.GetBook(ctx, id)
			require.NoError(t, err)
			require.Equal(t, id, book.ID)
			require.Equal(t, in.Name, book.Name)
			require.Equal(t, string(in.Year), string(book.Year))
			require.Equal(t, in.ReadPage == in.PageCount, book.Finished)
			require.Equal(t, book.InsertedAt, book.UpdatedAt)
			require.False(t, book.InsertedAt.IsZero())
		})
	}
}

func TestService_CreateBook_UniqueIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(t)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := svc.CreateBook(ctx, model.BookInput{Name: fmt.Sprintf("book %d", i)})
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestService_CreateBook_IDCollision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(t, service.WithIDGenerator(func() string { return "same" }))

	_, err := svc.CreateBook(ctx, dune())
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, dune())
	require.ErrorIs(t, err, errs.ErrInsertFailed)

	books, err := svc.ListBookSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
}

func seed(t *testing.T, svc *service.Service) []string {
	t.Helper()
	ctx := context.Background()
	inputs := []model.BookInput{
		{Name: "Dune", Publisher: "Chilton", PageCount: 400, ReadPage: 400, Reading: false},
		{Name: "Hyperion", Publisher: "Doubleday", PageCount: 480, ReadPage: 100, Reading: true},
		{Name: "dune", Publisher: "Ace", PageCount: 10, ReadPage: 0, Reading: true},
	}
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id, err := svc.CreateBook(ctx, in)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func bookIDs(books []model.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func TestService_ListBookSummaries(t *testing.T) {
	t.Parallel()
	svc := newService(t)

	empty, err := svc.ListBookSummaries(context.Background())
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	ids := seed(t, svc)
	summaries, err := svc.ListBookSummaries(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.BookSummary{
		{ID: ids[0], Name: "Dune", Publisher: "Chilton"},
		{ID: ids[1], Name: "Hyperion", Publisher: "Doubleday"},
		{ID: ids[2], Name: "dune", Publisher: "Ace"},
	}, summaries)
}

func TestService_ListBooks(t *testing.T) {
	t.Parallel()
	svc := newService(t)
	ids := seed(t, svc)

	tests := []struct {
		name    string
		filter  model.Filter
		want    []string
		wantErr error
	}{
		{name: "name case-insensitive", filter: model.Filter{Kind: model.FilterByName, Name: "DUNE"}, want: []string{ids[0], ids[2]}},
		{name: "name exact only", filter: model.Filter{Kind: model.FilterByName, Name: "Dun"}, wantErr: errs.ErrNotFound},
		{name: "empty name", filter: model.Filter{Kind: model.FilterByName}, wantErr: errs.ErrNotFound},
		{name: "reading", filter: model.Filter{Kind: model.FilterByReading, Flag: true}, want: []string{ids[1], ids[2]}},
		{name: "not reading", filter: model.Filter{Kind: model.FilterByReading, Flag: false}, want: []string{ids[0]}},
		{name: "finished", filter: model.Filter{Kind: model.FilterByFinished, Flag: true}, want: []string{ids[0]}},
		{name: "unfinished", filter: model.Filter{Kind: model.FilterByFinished, Flag: false}, want: []string{ids[1], ids[2]}},
		{name: "none", filter: model.Filter{Kind: model.FilterNone}, want: ids},
		{name: "all", filter: model.Filter{Kind: model.FilterAll}, want: ids},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			books, err := svc.ListBooks(context.Background(), tt.filter)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, bookIDs(books))
		})
	}
}

func TestService_ListBooks_EmptyReadingFilter(t *testing.T) {
	t.Parallel()
	svc := newService(t)

	books, err := svc.ListBooks(context.Background(), model.Filter{Kind: model.FilterByReading, Flag: true})
	require.NoError(t, err)
	require.Empty(t, books)
}

func TestService_GetBook_NotFound(t *testing.T) {
	t.Parallel()
	svc := newService(t)

	_, err := svc.GetBook(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_UpdateBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		svc := newService(t)
		ids := seed(t, svc)

		_, err := svc.UpdateBook(ctx, "missing", dune())
		require.ErrorIs(t, err, errs.ErrNotFound)

		books, err := svc.ListBooks(ctx, model.Filter{})
		require.NoError(t, err)
		require.Equal(t, ids, bookIDs(books))
	})

	t.Run("not found wins over invalid input", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.UpdateBook(ctx, "missing", model.BookInput{})
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	for _, tc := range []struct {
		name    string
		mutate  func(in *model.BookInput)
		wantErr error
	}{
		{name: "missing name", mutate: func(in *model.BookInput) { in.Name = "" }, wantErr: errs.ErrMissingName},
		{name: "invalid page range", mutate: func(in *model.BookInput) { in.ReadPage = in.PageCount + 1 }, wantErr: errs.ErrInvalidPageRange},
		{name: "negative pageCount", mutate: func(in *model.BookInput) { in.PageCount = -1 }, wantErr: errs.ErrNegativePages},
	} {
		tc := tc
		t.Run(tc.name+" leaves record untouched", func(t *testing.T) {
			svc := newService(t)
			id, err := svc.CreateBook(ctx, dune())
			require.NoError(t, err)
			before, err := svc.GetBook(ctx, id)
			require.NoError(t, err)

			in := dune()
			in.Author = "someone else"
			tc.mutate(&in)
			_, err = svc.UpdateBook(ctx, id, in)
			require.ErrorIs(t, err, tc.wantErr)

			after, err := svc.GetBook(ctx, id)
			require.NoError(t, err)
			require.Equal(t, before, after)
		})
	}

	t.Run("ok", func(t *testing.T) {
		svc := newService(t)
		id, err := svc.CreateBook(ctx, dune())
		require.NoError(t, err)
		before, err := svc.GetBook(ctx, id)
		require.NoError(t, err)
		require.True(t, before.Finished)

		in := model.BookInput{
			Name:      "Dune Messiah",
			Year:      json.RawMessage(`"1969"`),
			Author:    "Frank Herbert",
			Summary:   "Sequel",
			Publisher: "Putnam",
			PageCount: 256,
			ReadPage:  12,
			Reading:   true,
		}
		updated, err := svc.UpdateBook(ctx, id, in)
		require.NoError(t, err)

		after, err := svc.GetBook(ctx, id)
		require.NoError(t, err)
		require.Equal(t, updated, after)
		require.Equal(t, before.ID, after.ID)
		require.Equal(t, before.InsertedAt, after.InsertedAt)
		require.True(t, after.UpdatedAt.After(before.UpdatedAt))
		require.False(t, after.Finished)
		require.Equal(t, "Dune Messiah", after.Name)
		require.JSONEq(t, `"1969"`, string(after.Year))
		require.Equal(t, "Putnam", after.Publisher)
		require.Equal(t, 256, after.PageCount)
		require.Equal(t, 12, after.ReadPage)
		require.True(t, after.Reading)
	})
}

func TestService_DeleteBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(t)
	ids := seed(t, svc)

	require.NoError(t, svc.DeleteBook(ctx, ids[1]))
	require.ErrorIs(t, svc.DeleteBook(ctx, ids[1]), errs.ErrNotFound)

	books, err := svc.ListBooks(ctx, model.Filter{})
	require.NoError(t, err)
	require.Equal(t, []string{ids[0], ids[2]}, bookIDs(books))
}

func TestService_Events(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("published on successful writes", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc := newService(t, service.WithEvents(pub))

		id, err := svc.CreateBook(ctx, dune())
		require.NoError(t, err)
		_, err = svc.UpdateBook(ctx, id, dune())
		require.NoError(t, err)
		_, err = svc.UpdateBook(ctx, id, model.BookInput{})
		require.Error(t, err)
		require.NoError(t, svc.DeleteBook(ctx, id))
		require.Error(t, svc.DeleteBook(ctx, id))

		require.Equal(t, []model.EventType{
			model.EventBookCreated,
			model.EventBookUpdated,
			model.EventBookDeleted,
		}, pub.types())
		for _, e := range pub.events {
			require.Equal(t, id, e.BookID)
		}
	})

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("broker down")}
		svc := newService(t, service.WithEvents(pub))

		id, err := svc.CreateBook(ctx, dune())
		require.NoError(t, err)
		require.NotEmpty(t, id)
		require.Len(t, pub.types(), 1)
	})

	t.Run("nil publisher", func(t *testing.T) {
		svc := newService(t, service.WithEvents(nil))
		_, err := svc.CreateBook(ctx, dune())
		require.NoError(t, err)
	})
}

func TestService_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := svc.CreateBook(ctx, model.BookInput{Name: fmt.Sprintf("b%d", i), PageCount: 10})
			require.NoError(t, err)
			_, err = svc.UpdateBook(ctx, id, model.BookInput{Name: fmt.Sprintf("b%d", i), PageCount: 10, ReadPage: 10})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	finished, err := svc.ListBooks(ctx, model.Filter{Kind: model.FilterByFinished, Flag: true})
	require.NoError(t, err)
	require.Len(t, finished, n)
}
