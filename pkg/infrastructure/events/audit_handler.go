package events

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// AuditHandler writes one log entry per edited allocation cell
type AuditHandler struct {
	logger *logrus.Logger
}

// NewAuditHandler creates a handler that logs through logger
func NewAuditHandler(logger *logrus.Logger) *AuditHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuditHandler{logger: logger}
}

var _ EventHandler = (*AuditHandler)(nil)

func (h *AuditHandler) CanHandle(eventType string) bool {
	return eventType == AllocationEditedEvent
}

func (h *AuditHandler) Handle(event Event) error {
	data, ok := event.Data().(AllocationEdited)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Data(), event.Type())
	}
	for _, edit := range data.Edits {
		h.logger.WithFields(logrus.Fields{
			"event_id": event.ID(),
			"version":  event.Version(),
			"program":  data.Program,
			"week":     edit.Week,
			"channel":  edit.Channel,
			"diff":     edit.Diff,
		}).Info("Allocation edited")
	}
	return nil
}
