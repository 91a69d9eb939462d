// Package events entrega las notificaciones de reservas fuera del camino de la petición.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/travel-commerce-api/internal/application/ports"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// LogPublisher escribe cada evento en el log estructurado. Es el destino por defecto
// mientras no haya un canal de correo o cola configurado.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log.Component("events")}
}

// Publish registra el evento.
func (p *LogPublisher) Publish(_ context.Context, ev ports.BookingEvent) {
	p.log.Info().
		Str("type", ev.Type).
		Str("booking_id", ev.BookingID).
		Str("trip_id", ev.TripID).
		Str("user_id", ev.UserID).
		Str("payment_id", ev.PaymentID).
		Time("occurred_at", ev.OccurredAt).
		Msg("evento de reserva")
}

// AsyncPublisher encola los eventos y los entrega a next desde un grupo de workers.
// Publish nunca bloquea: con la cola llena el evento se descarta y queda en el log.
type AsyncPublisher struct {
	next  ports.EventPublisher
	log   *logger.Logger
	queue chan ports.BookingEvent

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncPublisher arranca workers goroutines sobre una cola de tamaño buffer.
func NewAsyncPublisher(next ports.EventPublisher, buffer, workers int, log *logger.Logger) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	p := &AsyncPublisher{next: next, log: log.Component("events"), queue: make(chan ports.BookingEvent, buffer)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *AsyncPublisher) work() {
	defer p.wg.Done()
	for ev := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		p.next.Publish(ctx, ev)
		cancel()
	}
}

// Publish encola el evento.
func (p *AsyncPublisher) Publish(_ context.Context, ev ports.BookingEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn().Str("type", ev.Type).Str("booking_id", ev.BookingID).Msg("publicador cerrado, evento descartado")
		return
	}
	select {
	case p.queue <- ev:
	default:
		p.log.Warn().Str("type", ev.Type).Str("booking_id", ev.BookingID).Msg("cola de eventos llena, evento descartado")
	}
}

// Close deja de aceptar eventos y espera a que se vacíe la cola o venza ctx.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
