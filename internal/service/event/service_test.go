package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

func TestEmitQueuesPendingEvent(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Outbox(), logger.Nop())

	apt := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		StartTime: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Status:    model.AppointmentStatusScheduled,
	}
	require.NoError(t, svc.Emit(context.Background(), model.EventAppointmentBooked, NewAppointmentPayload(apt)))

	pending, err := store.Outbox().GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.EventAppointmentBooked, pending[0].EventType)

	var got AppointmentPayload
	require.NoError(t, json.Unmarshal(pending[0].Payload, &got))
	assert.Equal(t, apt.ID, got.AppointmentID)
	assert.Empty(t, got.PreviousStatus)
}

func TestEmitRejectsUnmarshalablePayload(t *testing.T) {
	svc := NewService(memory.NewStore().Outbox(), logger.Nop())
	err := svc.Emit(context.Background(), "x", make(chan int))
	assert.Error(t, err)
}
