package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/ticketbooking/config"
	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds ticket listings per type filter. Entries are short lived
// and dropped whenever a booking changes ticket statuses.
type RedisCache struct {
	client     redis.UniversalClient
	ticketsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ticketsTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ticketsTTL,
	)
}

func NewRedisCacheWithClient(client redis.UniversalClient, ticketsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, ticketsTTL: ticketsTTL}
}

// GetTickets returns nil without error on a cache miss.
func (c *RedisCache) GetTickets(ctx context.Context, ticketType *domain.TicketType) ([]domain.Ticket, error) {
	data, err := c.client.Get(ctx, ticketsKey(ticketType)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get tickets from cache")
	}

	var tickets []domain.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, errors.Wrap(err, "decode cached tickets")
	}
	return tickets, nil
}

func (c *RedisCache) SetTickets(ctx context.Context, ticketType *domain.TicketType, tickets []domain.Ticket) error {
	payload, err := json.Marshal(tickets)
	if err != nil {
		return errors.Wrap(err, "encode tickets")
	}
	return errors.Wrap(c.client.Set(ctx, ticketsKey(ticketType), payload, c.ticketsTTL).Err(), "set tickets in cache")
}

// InvalidateTickets drops every cached listing.
func (c *RedisCache) InvalidateTickets(ctx context.Context) error {
	keys := make([]string, 0, len(domain.TicketTypes)+1)
	keys = append(keys, ticketsKey(nil))
	for i := range domain.TicketTypes {
		keys = append(keys, ticketsKey(&domain.TicketTypes[i]))
	}
	return errors.Wrap(c.client.Del(ctx, keys...).Err(), "invalidate tickets cache")
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func ticketsKey(ticketType *domain.TicketType) string {
	if ticketType == nil {
		return "cache:tickets:all"
	}
	return "cache:tickets:" + string(*ticketType)
}
