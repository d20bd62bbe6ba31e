package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/advaitbhat/tripnest/internal/config"
	kafkax "github.com/advaitbhat/tripnest/internal/kafka"
	"github.com/advaitbhat/tripnest/internal/logger"
	"github.com/advaitbhat/tripnest/internal/mailer"
	mailerService "github.com/advaitbhat/tripnest/internal/service/mailer"
	"github.com/advaitbhat/tripnest/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env)
	log.Info("notification worker starting")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mailerSender := &mailer.SMTPSender{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}
	mailerSvc := mailerService.NewMailerService(log, mailerSender)

	consumer := kafkax.NewConsumer([]string{cfg.KafkaBrokers}, "tripnest-notifier", "bookings")
	defer consumer.Close()
	dlq := kafkax.NewProducer([]string{cfg.KafkaBrokers}, "bookings-dlq")
	defer dlq.Close()

	n := worker.NewNotifier(log, mailerSvc, consumer, dlq, cfg.MaxWorkerRoutineCount)
	_ = n.Run(ctx)

	log.Info("notification worker stopped")
}
