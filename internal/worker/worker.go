package worker

import (
	"context"
	"log"

	"rxmatch-service/internal/broker"
	"rxmatch-service/internal/mailer"
	"rxmatch-service/internal/models"
	"rxmatch-service/internal/store"
	"rxmatch-service/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes MedicineMatched events, emails the patient
// that the medicine is in stock, and flips the match's notified flag. The
// flag is set only after a successful send, so delivery is at-least-once:
// a crash between send and flag update means one extra email, never a
// silently dropped one.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	mailer       mailer.Mailer
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	consumer *broker.Consumer,
	store *store.Store,
	m mailer.Mailer,
) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		store:    store,
		mailer:   m,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnMedicineMatched(w.handleMedicineMatched)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleMedicineMatched(ctx context.Context, event *models.MedicineMatchedEvent) error {
	err := w.mailer.SendAvailabilityNotice(
		event.PatientEmail,
		event.PatientName,
		event.MedicineName,
		event.PharmacyName,
		event.PharmacyLocation,
	)
	if err != nil {
		util.NotificationsFailedTotal.Inc()
		w.logger.Error("Failed to send availability notice",
			zap.Int64("match_id", event.MatchID),
			zap.String("patient_email", event.PatientEmail),
			zap.Error(err))
		return err
	}

	util.NotificationsSentTotal.Inc()

	if err := w.store.MarkMatchNotified(ctx, event.MatchID); err != nil {
		w.logger.Error("Failed to mark match notified",
			zap.Int64("match_id", event.MatchID),
			zap.Error(err))
		return err
	}

	w.logger.Info("Availability notice sent",
		zap.Int64("match_id", event.MatchID),
		zap.String("patient_email", event.PatientEmail))
	return nil
}
