package service

import (
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/errs"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opCreate = "create"
	opList   = "list"
	opGet    = "get"
	opUpdate = "update"
	opDelete = "delete"
)

var (
	// operationsTotal counts catalog operations by outcome
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookshelf",
		Name:      "operations_total",
		Help:      "Total catalog operations by operation and result",
	}, []string{"operation", "result"})

	booksGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bookshelf",
		Name:      "books",
		Help:      "Number of books currently in the catalog",
	})
)

func observe(op string, err error) {
	operationsTotal.WithLabelValues(op, result(err)).Inc()
}

func result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrMissingName), errors.Is(err, errs.ErrNegativePages), errors.Is(err, errs.ErrInvalidPageRange):
		return "invalid"
	default:
		return "error"
	}
}
