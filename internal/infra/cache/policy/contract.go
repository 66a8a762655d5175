package policy

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

// Source источник политик (Postgres или memory репозиторий)
type Source interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.CancellationPolicy, error)
}

// RedisClient подмножество redis.Cmdable, которое использует кэш
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс для метрик кэша
type Metrics interface {
	SetPolicyCacheEntries(n int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
