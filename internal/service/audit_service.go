package service

import (
	"go.uber.org/zap"

	"github.com/spec-kit/edge-gateway/internal/events"
)

// AuditService writes an audit log line for every security-relevant event
// published on the bus. Delivery is out-of-band, so a slow log sink can
// never stall the request that produced the event.
type AuditService struct {
	bus    *events.Bus
	logger *zap.Logger
}

// NewAuditService builds the service.
func NewAuditService(bus *events.Bus, logger *zap.Logger) *AuditService {
	return &AuditService{bus: bus, logger: logger.Named("audit")}
}

// RegisterHandlers subscribes the audit sink to the event types it tracks.
func (s *AuditService) RegisterHandlers() {
	for _, eventType := range []events.EventType{
		events.EventUserRegistered,
		events.EventUserLoggedIn,
		events.EventUserLoggedOut,
		events.EventRoleAssigned,
		events.EventTokenRevoked,
	} {
		s.bus.Subscribe(eventType, s.record)
	}
}

func (s *AuditService) record(ev events.Event) {
	s.logger.Info("audit event",
		zap.String("event_id", ev.ID),
		zap.String("type", string(ev.Type)),
		zap.Time("ts", ev.Timestamp),
		zap.Any("payload", ev.Payload),
	)
}
