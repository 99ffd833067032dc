package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/parcel-trip-backend/internal/domain/event"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/repository"
	"github.com/ignatzorin/parcel-trip-backend/internal/goroutine"
	"github.com/ignatzorin/parcel-trip-backend/internal/metrics"
	"github.com/ignatzorin/parcel-trip-backend/internal/ws"
)

const (
	defaultNotificationQueueSize = 1024
	notificationPublishTimeout   = 5 * time.Second
)

// NotificationSink принимает сообщения для внешней доставки (Kafka).
type NotificationSink interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// RealtimeBroadcaster рассылает события подписчикам WebSocket.
type RealtimeBroadcaster interface {
	BroadcastToTopic(topic string, kind string, data interface{})
	RestrictShipment(shipmentID uuid.UUID, parties ...uuid.UUID) int
}

// Notification - сообщение в топике уведомлений, одно на получателя.
type Notification struct {
	Kind           event.Kind             `json:"kind"`
	RecipientEmail string                 `json:"recipient_email"`
	RecipientID    uuid.UUID              `json:"recipient_id"`
	ShipmentID     uuid.UUID              `json:"shipment_id"`
	Payload        map[string]interface{} `json:"payload"`
	OccurredAt     time.Time              `json:"occurred_at"`
}

// NotificationService доставляет доменные события после коммита.
// Publish никогда не блокирует вызывающего: при переполненной очереди событие отбрасывается.
type NotificationService struct {
	users    repository.UserRepository
	sink     NotificationSink
	realtime RealtimeBroadcaster
	queue    chan event.Event
	log      *logrus.Logger
}

// NewNotificationService создаёт сервис уведомлений. realtime может быть nil.
func NewNotificationService(users repository.UserRepository, sink NotificationSink, realtime RealtimeBroadcaster, queueSize int, log *logrus.Logger) *NotificationService {
	if queueSize <= 0 {
		queueSize = defaultNotificationQueueSize
	}
	return &NotificationService{
		users:    users,
		sink:     sink,
		realtime: realtime,
		queue:    make(chan event.Event, queueSize),
		log:      log,
	}
}

// Start запускает фонового воркера. Воркер завершается при отмене ctx.
func (s *NotificationService) Start(ctx context.Context) {
	goroutine.SafeGoWithContext(ctx, "notification-worker", s.run)
}

// Publish реализует event.Publisher.
func (s *NotificationService) Publish(_ context.Context, events ...event.Event) {
	for _, e := range events {
		s.broadcast(e)

		select {
		case s.queue <- e:
			metrics.NotificationQueueDepth.Set(float64(len(s.queue)))
		default:
			metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
			s.log.WithFields(logrus.Fields{
				"kind":        e.Kind,
				"shipment_id": e.ShipmentID,
			}).Warn("Очередь уведомлений переполнена, событие отброшено")
		}
	}
}

func (s *NotificationService) broadcast(e event.Event) {
	if s.realtime == nil {
		return
	}
	data := map[string]interface{}{
		"shipment_id": e.ShipmentID,
		"payload":     e.Payload,
		"occurred_at": e.OccurredAt,
	}
	if e.Kind.Assigns() {
		if n := s.realtime.RestrictShipment(e.ShipmentID, e.Recipients...); n > 0 {
			s.log.WithFields(logrus.Fields{
				"shipment_id": e.ShipmentID,
				"dropped":     n,
			}).Debug("Посторонние подписчики отписаны от отправления")
		}
	}
	if !e.Kind.Private() {
		s.realtime.BroadcastToTopic(ws.ShipmentTopic(e.ShipmentID), string(e.Kind), data)
	}
	for _, recipient := range e.Recipients {
		s.realtime.BroadcastToTopic(ws.UserTopic(recipient), string(e.Kind), data)
	}
}

func (s *NotificationService) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.queue:
			metrics.NotificationQueueDepth.Set(float64(len(s.queue)))
			s.deliver(ctx, e)
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, e event.Event) {
	for _, recipient := range e.Recipients {
		entry := s.log.WithFields(logrus.Fields{
			"kind":         e.Kind,
			"shipment_id":  e.ShipmentID,
			"recipient_id": recipient,
		})

		user, err := s.users.FindByID(ctx, recipient)
		if err != nil {
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			entry.WithError(err).Warn("Получатель уведомления не найден")
			continue
		}

		msg := Notification{
			Kind:           e.Kind,
			RecipientEmail: user.Email,
			RecipientID:    recipient,
			ShipmentID:     e.ShipmentID,
			Payload:        e.Payload,
			OccurredAt:     e.OccurredAt,
		}

		pubCtx, cancel := context.WithTimeout(ctx, notificationPublishTimeout)
		err = s.sink.Publish(pubCtx, recipient.String(), msg)
		cancel()
		if err != nil {
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			entry.WithError(err).Error("Не удалось отправить уведомление")
			continue
		}
		metrics.NotificationsTotal.WithLabelValues("published").Inc()
	}
}
