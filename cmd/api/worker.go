package main

import (
	"context"
	"fmt"

	"slotbook/cmd/internal/config"
	"slotbook/cmd/internal/jobs"
	"slotbook/cmd/internal/mail"
	"slotbook/cmd/internal/queue"
	"slotbook/cmd/internal/utils"

	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
)

func runWorker(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	formatter, err := newFormatter(cfg)
	if err != nil {
		return err
	}

	switch cfg.QueueBackend {
	case "redis":
		rdb := newRedisClient(cfg)
		defer func() { _ = rdb.Close() }()

		q := queue.NewRedisQueue(rdb, cfg.RedisQueuePrefix)
		worker := newMailWorker(cfg, formatter, q)
		return worker.Run(ctx, q.Listen(worker.Keys()...))

	case "kafka":
		publisher := queue.NewKafkaPublisher(cfg.Brokers())
		defer func() { _ = publisher.Close() }()

		worker := newMailWorker(cfg, formatter, publisher)
		subscriber := queue.NewKafkaSubscriber(cfg.Brokers(), cfg.KafkaGroupID, worker.Keys())
		defer func() { _ = subscriber.Close() }()
		return worker.Run(ctx, subscriber)

	default:
		return fmt.Errorf("QUEUE_BACKEND=%s runs jobs inside the API process; no worker needed", cfg.QueueBackend)
	}
}

// newDispatchBackend picks where the API process sends jobs. The returned
// func releases the backend's connections.
func newDispatchBackend(cfg *config.Config, formatter *utils.DateFormatter) (queue.Backend, func(), error) {
	switch cfg.QueueBackend {
	case "redis":
		rdb := newRedisClient(cfg)
		return queue.NewRedisQueue(rdb, cfg.RedisQueuePrefix), func() { _ = rdb.Close() }, nil
	case "kafka":
		publisher := queue.NewKafkaPublisher(cfg.Brokers())
		return publisher, func() { _ = publisher.Close() }, nil
	case "inline":
		log.Warnf("QUEUE_BACKEND=inline: jobs run inside the API process")
		worker := newMailWorker(cfg, formatter, nil)
		return queue.NewInlineBackend(worker), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported queue backend %q", cfg.QueueBackend)
	}
}

func newMailWorker(cfg *config.Config, formatter *utils.DateFormatter, retry queue.Backend) *queue.Worker {
	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
	})

	worker := queue.NewWorker(retry, cfg.QueueMaxAttempts)
	worker.Handle(jobs.CancellationMailKey, jobs.NewCancellationMail(sender, formatter).Handle)
	return worker
}

func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
