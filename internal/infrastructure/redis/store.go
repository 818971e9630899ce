// Package redis almacén de caché de lotes sobre Redis (o un servicio compatible como Upstash).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
	"github.com/jhoicas/Procesamiento-api/pkg/config"
	goredis "github.com/redis/go-redis/v9"
)

var _ processing.CacheStore = (*Store)(nil)

// scanBatch claves pedidas por iteración de SCAN.
const scanBatch = 100

// NewClient crea el cliente desde la URL configurada. No verifica la conexión:
// con Redis caído el servicio sigue atendiendo sin caché.
func NewClient(cfg config.RedisConfig) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return goredis.NewClient(opts), nil
}

// Store implementa processing.CacheStore. El cliente se inyecta, no hay instancia global.
type Store struct {
	client goredis.UniversalClient
}

// NewStore construye el almacén sobre un cliente ya abierto.
func NewStore(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// Get lee una clave; found=false si no existe.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set escribe con expiración.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete borra las claves indicadas.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Keys enumera con SCAN MATCH; a diferencia de KEYS no bloquea el servidor.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return keys, nil
}

// Ping verifica la conexión con un set/get de prueba (usado por /api/health).
func (s *Store) Ping(ctx context.Context) error {
	const key = "health:ping"
	if err := s.client.Set(ctx, key, "ok", 10*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	if val != "ok" {
		return fmt.Errorf("redis: valor inesperado %q", val)
	}
	return nil
}
