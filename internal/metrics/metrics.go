package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ShipmentsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcel_shipments_created_total",
		Help: "Количество созданных отправлений.",
	})

	ShipmentTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_shipment_transitions_total",
		Help: "Переходы отправлений по статусам.",
	},
		[]string{"to"},
	)

	BidsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_bids_total",
		Help: "Операции со ставками.",
	},
		[]string{"action"},
	)

	CancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_cancellations_total",
		Help: "Отмены отправлений по инициатору и статусу на момент отмены.",
	},
		[]string{"role", "status"},
	)

	PenaltiesAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcel_penalties_amount_total",
		Help: "Сумма удержанных штрафов.",
	})

	OTPChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_otp_checks_total",
		Help: "Проверки кодов подтверждения.",
	},
		[]string{"gate", "result"},
	)

	ConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_conflicts_total",
		Help: "Проигранные гонки условной записи.",
	},
		[]string{"operation"},
	)

	RouteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_route_requests_total",
		Help: "Запросы маршрута по результату: hit, miss, shared, error.",
	},
		[]string{"result"},
	)

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_notifications_total",
		Help: "Уведомления по результату: published, dropped, failed.",
	},
		[]string{"result"},
	)

	NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parcel_notification_queue_depth",
		Help: "Текущее число уведомлений в очереди.",
	})
)
