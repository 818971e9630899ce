package processingtest

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/application/processing"
)

var (
	_ processing.CacheStore         = (*MemoryCache)(nil)
	_ processing.BatchCodeGenerator = (*SeqCodes)(nil)
)

// MemoryCache almacén de caché en memoria. El TTL se registra pero no expira entradas.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration

	// Errores inyectables por operación.
	GetErr    error
	SetErr    error
	DeleteErr error
	KeysErr   error
}

// NewMemoryCache almacén vacío.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return nil, false, c.GetErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SetErr != nil {
		return c.SetErr
	}
	c.data[key] = append([]byte(nil), value...)
	c.ttls[key] = ttl
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DeleteErr != nil {
		return c.DeleteErr
	}
	for _, k := range keys {
		delete(c.data, k)
		delete(c.ttls, k)
	}
	return nil
}

func (c *MemoryCache) Keys(_ context.Context, pattern string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.KeysErr != nil {
		return nil, c.KeysErr
	}
	var out []string
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Put escribe un valor crudo sin pasar por el manager (p. ej. basura para simular corrupción).
func (c *MemoryCache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Has indica si la clave existe.
func (c *MemoryCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// TTL vida con la que se guardó la clave.
func (c *MemoryCache) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

// Len cantidad de claves.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// SeqCodes generador de códigos secuencial: CROP-LOT-YYYYMMDD-n.
// Fixed, si no es vacío, se devuelve siempre (simula un código que otra alta ya tomó).
type SeqCodes struct {
	mu    sync.Mutex
	n     int
	Err   error
	Fixed string
	Calls int
}

func (g *SeqCodes) Generate(_ context.Context, crop string, lotNo int, date time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	if g.Err != nil {
		return "", g.Err
	}
	if g.Fixed != "" {
		return g.Fixed, nil
	}
	g.n++
	return fmt.Sprintf("%s-%d-%s-%d", crop, lotNo, date.Format("20060102"), g.n), nil
}
