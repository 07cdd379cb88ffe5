package worker

import (
	"github.com/spec-kit/civic-issue-service/internal/service"
)

// StartNotificationWorker subscribes the notification service to the event
// stream. Delivery runs inline on the dispatcher; there is no queue to drain
// on shutdown.
func StartNotificationWorker(notifications *service.NotificationService) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
}
