package bootstrap

import (
	"fmt"

	"github.com/Domenick1991/ticketbooking/config"
	"github.com/Domenick1991/ticketbooking/internal/events"
	"github.com/Domenick1991/ticketbooking/internal/kafka"
	"github.com/Domenick1991/ticketbooking/internal/rabbitmq"
	"github.com/rs/zerolog"
)

// NewEventTransport returns the publisher and consumer of the configured
// broker. Both are nil when events are disabled.
func NewEventTransport(cfg config.EventsConfig, logger zerolog.Logger) (events.Publisher, events.Consumer, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		return kafka.NewProducer(cfg.Brokers, cfg.BookingTopic, logger),
			kafka.NewConsumer(cfg.Brokers, cfg.GroupID, cfg.BookingTopic, logger),
			nil
	case config.BrokerRabbitMQ:
		publisher, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.Queue, logger)
		if err != nil {
			return nil, nil, err
		}
		return publisher, rabbitmq.NewConsumer(cfg.AMQPURL, cfg.Queue, logger), nil
	case config.BrokerNone, "":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown events broker %q", cfg.Broker)
	}
}
