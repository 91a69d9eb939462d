package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
)

// httpRecorder lo implementa *metrics.Recorder.
type httpRecorder interface {
	RequestStarted()
	RequestFinished(method, path string, status int, elapsed time.Duration)
}

// MetricsMiddleware mide peticiones por ruta del router (no por URL) para acotar la cardinalidad.
func MetricsMiddleware(rec httpRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec.RequestStarted()
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		rec.RequestFinished(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}

// RateLimit limita por IP con token bucket: perMinute peticiones por minuto con ráfaga burst.
// Los buckets sin uso durante ttl se descartan en la siguiente petición que toque el barrido.
func RateLimit(perMinute, burst int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if burst <= 0 {
		burst = perMinute
	}
	type bucket struct {
		lim  *rate.Limiter
		seen time.Time
	}
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		ttl       = 10 * time.Minute
		lastSweep = time.Now()
	)
	every := rate.Every(time.Minute / time.Duration(perMinute))

	return func(c *fiber.Ctx) error {
		now := time.Now()
		ip := c.IP()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for k, b := range buckets {
				if now.Sub(b.seen) > ttl {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[ip]
		if !ok {
			b = &bucket{lim: rate.NewLimiter(every, burst)}
			buckets[ip] = b
		}
		b.seen = now
		allowed := b.lim.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Status: fiber.StatusTooManyRequests, Code: "RATE_LIMITED", Message: "demasiados intentos, espere un momento",
			})
		}
		return c.Next()
	}
}
