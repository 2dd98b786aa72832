package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name            string
		event           Event
		wantEventType   string
		wantSuccess     bool
		wantHasError    bool
		wantHasDelivery bool
	}{
		{
			name: "delivery enqueued event",
			event: Event{
				TenantID:     uuid.New(),
				EventType:    EventDeliveryEnqueued,
				DeliveryID:   "550e8400-e29b-41d4-a716-446655440000",
				WebhookEvent: "deployment.completed",
				Success:      true,
			},
			wantEventType:   string(EventDeliveryEnqueued),
			wantSuccess:     true,
			wantHasError:    false,
			wantHasDelivery: true,
		},
		{
			name: "idempotent replay event",
			event: Event{
				TenantID:   uuid.New(),
				EventType:  EventDeliveryReplayed,
				DeliveryID: "550e8400-e29b-41d4-a716-446655440000",
				Success:    true,
				Metadata: map[string]string{
					"idempotency_key": "550e8400-e29b-41d4-a716-446655440000",
				},
			},
			wantEventType:   string(EventDeliveryReplayed),
			wantSuccess:     true,
			wantHasError:    false,
			wantHasDelivery: true,
		},
		{
			name: "failed cancel event",
			event: Event{
				TenantID:   uuid.New(),
				EventType:  EventDeliveryCancelled,
				DeliveryID: "7c9e6679-7425-40de-944b-e07fc1f90ae7",
				Success:    false,
				Error:      "delivery has already reached a terminal state",
			},
			wantEventType:   string(EventDeliveryCancelled),
			wantSuccess:     false,
			wantHasError:    true,
			wantHasDelivery: true,
		},
		{
			name: "subscription created event",
			event: Event{
				TenantID:       uuid.New(),
				EventType:      EventSubscriptionCreated,
				SubscriptionID: "7c9e6679-7425-40de-944b-e07fc1f90ae7",
				Success:        true,
			},
			wantEventType:   string(EventSubscriptionCreated),
			wantSuccess:     true,
			wantHasError:    false,
			wantHasDelivery: false,
		},
		{
			name: "event with IP and user agent",
			event: Event{
				TenantID:       uuid.New(),
				EventType:      EventSubscriptionDeleted,
				SubscriptionID: "7c9e6679-7425-40de-944b-e07fc1f90ae7",
				Success:        true,
				IPAddress:      "192.168.1.1",
				UserAgent:      "Mozilla/5.0",
			},
			wantEventType:   string(EventSubscriptionDeleted),
			wantSuccess:     true,
			wantHasError:    false,
			wantHasDelivery: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, nil)
			logger := slog.New(handler)

			auditLogger := NewSlogLogger(logger)
			err := auditLogger.Log(context.Background(), tt.event)

			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, tt.wantEventType)
			assert.Contains(t, output, "audit_event")
			assert.Contains(t, output, "audit")

			if tt.wantHasError {
				assert.Contains(t, output, tt.event.Error)
			}

			if tt.wantHasDelivery {
				assert.Contains(t, output, tt.event.DeliveryID)
			}
		})
	}
}

func TestSlogLogger_Log_GeneratesIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(handler)

	auditLogger := NewSlogLogger(logger)
	event := Event{
		TenantID:  uuid.New(),
		EventType: EventDeliveryEnqueued,
		Success:   true,
	}

	err := auditLogger.Log(context.Background(), event)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "event_id")

	var logEntry map[string]interface{}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.NotEmpty(t, lines)

	err = json.Unmarshal([]byte(lines[0]), &logEntry)
	require.NoError(t, err)

	eventID, ok := logEntry["event_id"].(string)
	assert.True(t, ok)
	assert.NotEmpty(t, eventID)

	_, err = uuid.Parse(eventID)
	assert.NoError(t, err)
}

func TestSlogLogger_Log_UsesProvidedIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(handler)

	auditLogger := NewSlogLogger(logger)
	expectedID := uuid.New()
	expectedTimestamp := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	event := Event{
		ID:        expectedID,
		Timestamp: expectedTimestamp,
		TenantID:  uuid.New(),
		EventType: EventDeliveryCancelled,
		Success:   true,
	}

	err := auditLogger.Log(context.Background(), event)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, expectedID.String())
}

func TestSlogLogger_Log_IncludesAllEventTypes(t *testing.T) {
	eventTypes := []EventType{
		EventDeliveryEnqueued,
		EventDeliveryReplayed,
		EventDeliveryCancelled,
		EventSubscriptionCreated,
		EventSubscriptionDeleted,
	}

	for _, eventType := range eventTypes {
		t.Run(string(eventType), func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, nil)
			logger := slog.New(handler)

			auditLogger := NewSlogLogger(logger)
			event := Event{
				TenantID:  uuid.New(),
				EventType: eventType,
				Success:   true,
			}

			err := auditLogger.Log(context.Background(), event)
			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, string(eventType))
		})
	}
}

func TestNoOpLogger_Log(t *testing.T) {
	logger := &NoOpLogger{}

	event := Event{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		TenantID:  uuid.New(),
		EventType: EventDeliveryEnqueued,
		Success:   true,
		Metadata: map[string]string{
			"test": "value",
		},
	}

	err := logger.Log(context.Background(), event)

	assert.NoError(t, err)
}

func TestSlogLogger_Log_WithMetadata(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(handler)

	auditLogger := NewSlogLogger(logger)
	event := Event{
		TenantID:   uuid.New(),
		EventType:  EventDeliveryEnqueued,
		DeliveryID: uuid.New().String(),
		Success:    true,
		Metadata: map[string]string{
			"event_type":   "deployment.failed",
			"max_attempts": "8",
		},
	}

	err := auditLogger.Log(context.Background(), event)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "deployment.failed")
	assert.Contains(t, output, "max_attempts")
}

func TestLoggerInterface_Compliance(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
	var _ Logger = (*NoOpLogger)(nil)
}

func TestEvent_JSONSerialization(t *testing.T) {
	event := Event{
		ID:             uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Timestamp:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		TenantID:       uuid.MustParse("660e8400-e29b-41d4-a716-446655440001"),
		EventType:      EventDeliveryEnqueued,
		DeliveryID:     "770e8400-e29b-41d4-a716-446655440002",
		SubscriptionID: "880e8400-e29b-41d4-a716-446655440003",
		WebhookEvent:   "deployment.completed",
		Success:        true,
		Metadata: map[string]string{
			"key": "value",
		},
		IPAddress: "192.168.1.1",
		UserAgent: "TestAgent/1.0",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded Event
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.TenantID, decoded.TenantID)
	assert.Equal(t, event.EventType, decoded.EventType)
	assert.Equal(t, event.DeliveryID, decoded.DeliveryID)
	assert.Equal(t, event.SubscriptionID, decoded.SubscriptionID)
	assert.Equal(t, event.WebhookEvent, decoded.WebhookEvent)
	assert.Equal(t, event.Success, decoded.Success)
	assert.Equal(t, event.Metadata, decoded.Metadata)
	assert.Equal(t, event.IPAddress, decoded.IPAddress)
	assert.Equal(t, event.UserAgent, decoded.UserAgent)
}

func TestEvent_JSONSerialization_OmitsEmptyFields(t *testing.T) {
	event := Event{
		TenantID:  uuid.MustParse("660e8400-e29b-41d4-a716-446655440001"),
		EventType: EventDeliveryEnqueued,
		Success:   true,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	jsonStr := string(data)
	assert.NotContains(t, jsonStr, "delivery_id")
	assert.NotContains(t, jsonStr, "subscription_id")
	assert.NotContains(t, jsonStr, "error")
	assert.NotContains(t, jsonStr, "ip_address")
	assert.NotContains(t, jsonStr, "user_agent")
}
