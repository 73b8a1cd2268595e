package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "tracking", cfg.Mongo.Database)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Empty(t, cfg.MessageQueue.Type)
	assert.Equal(t, []string{"localhost:9092"}, cfg.MessageQueue.Kafka.Brokers)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9100
log:
  level: debug
message_queue:
  type: kafka
  kafka:
    brokers: ["kafka-1:9092", "kafka-2:9092"]
    topic: gps
`), 0o600))

	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("MESSAGE_QUEUE_KAFKA_TOPIC", "gps-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
	assert.Equal(t, "kafka", cfg.MessageQueue.Type)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.MessageQueue.Kafka.Brokers)
	assert.Equal(t, "gps-env", cfg.MessageQueue.Kafka.Topic)
}

func TestLoadConfigLegacyPort(t *testing.T) {
	t.Setenv("PORT", "8080")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConnectMongoDBWithoutURI(t *testing.T) {
	_, err := ConnectMongoDB(context.Background(), MongoConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMongoURIMissing)
}
