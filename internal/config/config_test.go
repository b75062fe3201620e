package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		t.Setenv("APP_PORT", "8080")
		t.Setenv("MONGO_URI", "mongodb://localhost:27017")
		t.Setenv("MONGO_DB", "biteme_test")
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5433")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
		t.Setenv("EVENTS_BROKER", "Kafka")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
		t.Setenv("CORS_ORIGINS", "http://a.test")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
		assert.Equal(t, "biteme_test", cfg.MongoDB)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5433", cfg.DBPort)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, "kafka", cfg.EventsBroker)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, []string{"http://a.test"}, cfg.CORSOrigins)
		assert.True(t, cfg.HistoryEnabled())
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("MONGO_URI", "mongodb://localhost:27017")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("APP_PORT", "")
		t.Setenv("DB_HOST", "")
		t.Setenv("STORE_TIMEOUT_SECONDS", "nope")

		cfg := LoadConfig()

		assert.Equal(t, "8000", cfg.AppPort)
		assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
		assert.Equal(t, "order-events", cfg.KafkaTopic)
		assert.False(t, cfg.HistoryEnabled())
	})
}
