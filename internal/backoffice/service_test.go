package backoffice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterflow/contatori/internal/calllog"
	"github.com/meterflow/contatori/pkg/logging"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db), mock
}

func TestDashboardStats(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total_contatori`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"total_contatori", "da_confermare", "confermati", "modificati_ai"},
		).AddRow(42, 12, 25, 5))

	st, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), st.TotalContatori)
	assert.Equal(t, int64(12), st.DaConfermare)
	assert.Equal(t, int64(25), st.Confermati)
	assert.Equal(t, int64(5), st.ModificatiAI)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListContatori(t *testing.T) {
	svc, mock := newTestService(t)

	now := time.Now()
	pre := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT c\.id, c\.serial_number`).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "serial_number", "customer_name", "address",
			"service_type", "cantiere", "priority",
			"pre_assigned_date", "pre_assigned_time_slot",
			"needs_confirmation", "has_scheduled_appointment",
			"confirmed_date", "confirmed_time_slot",
			"modified_from_original", "committente_nome", "operatore_nome",
			"last_updated",
		}).AddRow(
			1, "M240567891", "Mario Rossi", "Via Roma 123, Milano",
			"sostituzione contatore gas", "MI-Nord-2025", "alta",
			pre, "09:00-12:00",
			true, false,
			nil, "",
			false, "Unareti SpA", "Marco Bianchi",
			now,
		))

	rows, err := svc.ListContatori(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "M240567891", rows[0].SerialNumber)
	assert.Equal(t, "Unareti SpA", rows[0].CommittenteNome)
	assert.True(t, rows[0].NeedsConfirmation)
	assert.Nil(t, rows[0].ConfirmedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOperatori(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT id, nome`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "nome", "telefono", "whatsapp",
			"zone_competenza", "specializzazioni", "attivo",
		}).AddRow(
			3, "Marco Bianchi", "+393331234567", "+393331234567",
			"{Milano,Monza}", "{gas,acqua}", true,
		))

	rows, err := svc.ListOperatori(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Marco Bianchi", rows[0].Nome)
	assert.Equal(t, []string{"Milano", "Monza"}, rows[0].ZoneCompetenza)
	assert.Equal(t, []string{"gas", "acqua"}, rows[0].Specializzazioni)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeCalls struct {
	entries []calllog.Entry
}

func (f *fakeCalls) RecentCalls(_ context.Context, _ int) ([]calllog.Entry, error) {
	return f.entries, nil
}

func TestHandleDashboard(t *testing.T) {
	svc, mock := newTestService(t)
	calls := &fakeCalls{entries: []calllog.Entry{{
		CallID:       "call-1",
		SerialNumber: "M1",
		CallType:     "escalation",
		Result:       "escalation_richiesta",
		CallDate:     time.Now(),
	}}}
	h := NewHandler(svc, calls, logging.Default())

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total_contatori`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"total_contatori", "da_confermare", "confermati", "modificati_ai"},
		).AddRow(10, 4, 6, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Stats       Stats           `json:"stats"`
		RecentCalls []calllog.Entry `json:"recentCalls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, int64(10), payload.Stats.TotalContatori)
	require.Len(t, payload.RecentCalls, 1)
	assert.Equal(t, "call-1", payload.RecentCalls[0].CallID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
