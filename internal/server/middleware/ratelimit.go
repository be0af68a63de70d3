package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// bucket хранит состояние token bucket одного клиента
type bucket struct {
	lastRefill time.Time
	lastSeen   time.Time
	tokens     float64
}

// RateLimiter ограничивает частоту запросов по IP клиента (token bucket)
type RateLimiter struct {
	logger   *slog.Logger
	buckets  map[string]*bucket
	done     chan struct{}
	rate     float64 // пополнение токенов в секунду
	capacity float64
	mu       sync.Mutex
}

// NewRateLimiter создает лимитер: rps запросов в секунду с burst запасом
func NewRateLimiter(logger *slog.Logger, rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		logger:   logger,
		buckets:  make(map[string]*bucket),
		done:     make(chan struct{}),
		rate:     rps,
		capacity: float64(burst),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop останавливает фоновую очистку
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

// Middleware возвращает http middleware с проверкой лимита
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			rl.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastRefill: now}
		rl.buckets[ip] = b
	}

	// Пополняем токены пропорционально прошедшему времени
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.tokens+elapsed*rl.rate, rl.capacity)
	b.lastRefill = now
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if time.Since(b.lastSeen) > 3*time.Minute {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
