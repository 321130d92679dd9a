package handler

import (
	"fmt"
	"net/http"

	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/errs"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/model"
	md "github.com/Astemirdum/bookshelf-service/pkg/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	msgBookAdded   = "Book added successfully"
	msgBookUpdated = "Book updated successfully"
	msgBookDeleted = "Book deleted successfully"

	msgAddFailed    = "Failed to add book"
	msgUpdateFailed = "Failed to update book"
	msgDeleteFailed = "Failed to delete book"

	msgBookNotFound   = "Book not found"
	msgInvalidPayload = "Invalid request payload"
)

type Handler struct {
	bookSvc BookService
	log     *zap.Logger
}

func New(bookSvc BookService, log *zap.Logger) *Handler {
	return &Handler{
		bookSvc: bookSvc,
		log:     log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.HideBanner = true
	e.HTTPErrorHandler = h.ErrorHandler
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/books", h.CreateBook)
	api.GET("/books", h.ListBooks)
	api.GET("/books/:id", h.GetBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.DeleteBook)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.BookInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, failure(msgAddFailed, msgInvalidPayload))
	}

	id, err := h.bookSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		if isInvalidInput(err) {
			return echo.NewHTTPError(http.StatusBadRequest, failure(msgAddFailed, err.Error()))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, msgAddFailed).SetInternal(err)
	}

	return c.JSON(http.StatusCreated, model.Response{
		Status:  model.StatusSuccess,
		Message: msgBookAdded,
		Data:    model.CreateBookResponse{BookID: id},
	})
}

func (h *Handler) ListBooks(c echo.Context) error {
	ctx := c.Request().Context()

	f := model.ParseFilter(c.QueryParams())
	if f.Kind == model.FilterNone {
		summaries, err := h.bookSvc.ListBookSummaries(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, model.Response{Status: model.StatusSuccess, Data: summaries})
	}

	books, err := h.bookSvc.ListBooks(ctx, f)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Book with name %s not found", f.Name))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.Response{Status: model.StatusSuccess, Data: books})
}

func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.bookSvc.GetBook(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgBookNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.Response{Status: model.StatusSuccess, Data: book})
}

func (h *Handler) UpdateBook(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusNotFound, failure(msgUpdateFailed, errs.ErrNotFound.Error()))
	}
	var req model.BookInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, failure(msgUpdateFailed, msgInvalidPayload))
	}

	if _, err := h.bookSvc.UpdateBook(c.Request().Context(), id, req); err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, failure(msgUpdateFailed, err.Error()))
		case isInvalidInput(err):
			return echo.NewHTTPError(http.StatusBadRequest, failure(msgUpdateFailed, err.Error()))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, msgUpdateFailed).SetInternal(err)
	}
	return c.JSON(http.StatusOK, model.Response{Status: model.StatusSuccess, Message: msgBookUpdated})
}

func (h *Handler) DeleteBook(c echo.Context) error {
	if err := h.bookSvc.DeleteBook(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, failure(msgDeleteFailed, err.Error()))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.Response{Status: model.StatusSuccess, Message: msgBookDeleted})
}

// ErrorHandler renders every error in the response envelope: 4xx as "fail", 5xx as "error".
func (h *Handler) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}

	status := model.StatusFail
	if code >= http.StatusInternalServerError {
		status = model.StatusError
		h.log.Error("request failed", zap.Int("code", code), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, model.Response{Status: status, Message: msg})
	}
	if err != nil {
		h.log.Error("write error response", zap.Error(err))
	}
}

func failure(prefix, reason string) string {
	return prefix + ". " + reason
}

func isInvalidInput(err error) bool {
	return errors.Is(err, errs.ErrMissingName) ||
		errors.Is(err, errs.ErrNegativePages) ||
		errors.Is(err, errs.ErrInvalidPageRange)
}
