package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/goroutine"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
)

// ExpiryWorker периодически отклоняет заявки и заказы услуг, которые
// ждут решения администратора дольше заданного срока. Нулевой срок
// отключает соответствующую проверку.
type ExpiryWorker struct {
	requests   *EscrowRequestService
	orders     *OrderService
	requestTTL time.Duration
	orderTTL   time.Duration
	interval   time.Duration
	now        func() time.Time
}

func NewExpiryWorker(requests *EscrowRequestService, orders *OrderService, requestTTL, orderTTL, interval time.Duration) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryWorker{
		requests:   requests,
		orders:     orders,
		requestTTL: requestTTL,
		orderTTL:   orderTTL,
		interval:   interval,
		now:        time.Now,
	}
}

func (w *ExpiryWorker) Enabled() bool {
	return w.requestTTL > 0 || w.orderTTL > 0
}

// Start запускает цикл в отдельной горутине до отмены ctx.
func (w *ExpiryWorker) Start(ctx context.Context) {
	if !w.Enabled() {
		logger.Log.Info("expiry worker disabled")
		return
	}
	goroutine.SafeGoWithContext(ctx, "expiry-worker", w.run)
}

func (w *ExpiryWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход и возвращает число отклонённых заявок и заказов.
func (w *ExpiryWorker) RunOnce(ctx context.Context) (int, int) {
	now := w.now()
	requests, err := w.requests.ExpireStale(ctx, w.requestTTL, now)
	if err != nil {
		logger.Log.WithError(err).Error("expiry: escrow requests scan failed")
	}
	orders, err := w.orders.ExpireAwaitingAdmin(ctx, w.orderTTL, now)
	if err != nil {
		logger.Log.WithError(err).Error("expiry: service orders scan failed")
	}
	if requests > 0 || orders > 0 {
		logger.Log.WithFields(logrus.Fields{
			"requests": requests,
			"orders":   orders,
		}).Info("expiry: stale items rejected")
	}
	return requests, orders
}
