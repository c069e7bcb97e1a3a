package audit

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Event is one balance-affecting operation on the ledger.
type Event struct {
	Timestamp  time.Time       `json:"timestamp"`
	EventType  string          `json:"event_type"`
	Entity     string          `json:"entity"`
	EntityID   int64           `json:"entity_id"`
	BusinessID int64           `json:"business_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	Details    map[string]any  `json:"details,omitempty"`
}

type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.Named("audit")}
}

// LogMutation records a committed ledger mutation.
func (a *Logger) LogMutation(eventType, entity string, entityID, businessID int64, amount decimal.Decimal, details map[string]any) {
	a.log(Event{
		Timestamp:  time.Now(),
		EventType:  eventType,
		Entity:     entity,
		EntityID:   entityID,
		BusinessID: businessID,
		Amount:     amount,
		Status:     "SUCCESS",
		Details:    details,
	})
}

func (a *Logger) LogError(eventType, entity string, entityID, businessID int64, err error) {
	a.log(Event{
		Timestamp:  time.Now(),
		EventType:  eventType,
		Entity:     entity,
		EntityID:   entityID,
		BusinessID: businessID,
		Status:     "FAILED",
		Details:    map[string]any{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", event.EventType),
		zap.String("entity", event.Entity),
		zap.Int64("entity_id", event.EntityID),
		zap.Int64("business_id", event.BusinessID),
		zap.String("amount", event.Amount.StringFixed(2)),
		zap.String("status", event.Status),
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("details", event.Details))
	}

	if event.Status == "FAILED" {
		a.logger.Warn("AUDIT", fields...)
		return
	}
	a.logger.Info("AUDIT", fields...)
}
