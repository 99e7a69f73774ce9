package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
app:
  name: tickets
database:
  url: ${TEST_TICKETS_DB_URL}
  lock_timeout_ms: 1500
events:
  broker: Kafka
  brokers: ["localhost:9092"]
booking:
  hold_ttl_minutes: 15
`

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_TICKETS_DB_URL", "postgres://u:p@localhost:5432/tickets")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@localhost:5432/tickets", cfg.Database.DSN())
	assert.Equal(t, 1500, cfg.Database.LockTimeoutMS)
	assert.Equal(t, BrokerKafka, cfg.Events.Broker)
	assert.Equal(t, "tickets", cfg.Events.GroupID)
	assert.Equal(t, 15*time.Minute, cfg.Booking.HoldTTL())
	assert.Equal(t, 30*time.Second, cfg.Booking.TicketsCacheTTL())
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, ":8081", cfg.GRPC.Address)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSNFromFields(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  host: db\n  user: app\n  password: secret\n  name: tickets\n"))
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=tickets sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, BrokerNone, cfg.Events.Broker)
}

func TestParse_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name        string
		yaml        string
		expectedErr string
	}{
		{
			name:        "No database",
			yaml:        "app:\n  name: x\n",
			expectedErr: "database url or host is required",
		},
		{
			name:        "Kafka without brokers",
			yaml:        "database:\n  host: db\nevents:\n  broker: kafka\n",
			expectedErr: "events.brokers is required",
		},
		{
			name:        "RabbitMQ without url",
			yaml:        "database:\n  host: db\nevents:\n  broker: rabbitmq\n",
			expectedErr: "events.amqp_url is required",
		},
		{
			name:        "Unknown broker",
			yaml:        "database:\n  host: db\nevents:\n  broker: nats\n",
			expectedErr: "unknown events broker",
		},
		{
			name:        "Negative hold ttl",
			yaml:        "database:\n  host: db\nbooking:\n  hold_ttl_minutes: -1\n",
			expectedErr: "hold_ttl_minutes",
		},
		{
			name:        "Negative outbox interval",
			yaml:        "database:\n  host: db\nworker:\n  outbox_interval_seconds: -5\n",
			expectedErr: "worker.outbox_interval_seconds must be positive",
		},
		{
			name:        "Negative outbox batch",
			yaml:        "database:\n  host: db\nworker:\n  outbox_batch_size: -1\n",
			expectedErr: "worker.outbox_batch_size must be positive",
		},
		{
			name:        "Negative sweep interval",
			yaml:        "database:\n  host: db\nworker:\n  expiration_sweep_minutes: -1\n",
			expectedErr: "worker.expiration_sweep_minutes must be positive",
		},
		{
			name:        "Rate limit without rps",
			yaml:        "database:\n  host: db\nrate_limit:\n  enabled: true\n",
			expectedErr: "rate_limit.rps",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}
