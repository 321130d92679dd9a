package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/bookshelf-service/bookshelf/config"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/events"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/handler"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/repository"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/server"
	"github.com/Astemirdum/bookshelf-service/bookshelf/internal/service"
	cb "github.com/Astemirdum/bookshelf-service/pkg/circuit_breaker"
	"github.com/Astemirdum/bookshelf-service/pkg/kafka"
	"github.com/Astemirdum/bookshelf-service/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "bookshelf")
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	repo := repository.NewRepository(log)

	opts := make([]service.Option, 0, 1)
	if cfg.Kafka.Enabled() {
		publisher, err := newPublisher(cfg, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, service.WithEvents(publisher))
	} else {
		log.Info("kafka addrs are empty, book events are disabled")
	}
	svc := service.NewService(repo, log, opts...)

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr",
				net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(gCtx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server", zap.Error(err))
		return err
	}
	log.Info("Graceful shutdown finished")
	return nil
}

func newPublisher(cfg *config.Config, log *zap.Logger) (*events.Publisher, error) {
	if err := kafka.CreateTopics(cfg.Kafka, kafka.BooksTopic); err != nil {
		log.Error("create topics", zap.Error(err))
	}
	producer, err := kafka.NewSyncProducer(cfg.Kafka)
	if err != nil {
		return nil, errors.Wrap(err, "kafka.NewSyncProducer")
	}
	return events.NewPublisher(producer, cb.New(cfg.CircuitBreaker), kafka.BooksTopic, log), nil
}
