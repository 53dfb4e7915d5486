package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

func TestUpsertIfAbsentInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "client_records")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	key := ingest.RecordKey{
		RequestID:    "req-1",
		PartnerID:    "PartnerA",
		ClientID:     "c_1234",
		BusinessDate: "2026-09-01",
	}
	record := ingest.ClientRecord{ClientID: "c_1234", AccountBalance: 12098, ProcessedAt: now}

	mock.ExpectExec("INSERT INTO client_records").
		WithArgs(
			key.RequestID,
			key.PartnerID,
			key.ClientID,
			key.BusinessDate,
			record.AccountBalance,
			record.ProcessedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := store.UpsertIfAbsent(context.Background(), key, record)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertIfAbsentConflictIsNoOp(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "client_records")
	require.NoError(t, err)

	key := ingest.RecordKey{
		RequestID:    "req-1",
		PartnerID:    "PartnerA",
		ClientID:     "c_1234",
		BusinessDate: "2026-09-01",
	}
	record := ingest.ClientRecord{ClientID: "c_1234", AccountBalance: 12098, ProcessedAt: time.Now().UTC()}

	// ON CONFLICT DO NOTHING: the replayed insert affects zero rows and the
	// store reports already-exists without error.
	mock.ExpectExec("INSERT INTO client_records").
		WithArgs(
			key.RequestID,
			key.PartnerID,
			key.ClientID,
			key.BusinessDate,
			record.AccountBalance,
			record.ProcessedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := store.UpsertIfAbsent(context.Background(), key, record)
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStoreWithPoolRejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewStoreWithPool(mock, "client_records; DROP TABLE clients")
	require.Error(t, err)
}
