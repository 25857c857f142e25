package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

var errRecorded = errors.New("recorded")

// recordingQuerier captures the SQL and arguments of the last call and then
// fails, so statement shape can be asserted without a database.
type recordingQuerier struct {
	sql  string
	args []any
}

func (q *recordingQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql, q.args = sql, args
	return pgconn.CommandTag{}, errRecorded
}

func (q *recordingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	return nil, errRecorded
}

func (q *recordingQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return errRow{}
}

type errRow struct{}

func (errRow) Scan(dest ...any) error { return errRecorded }

func TestSearchByNameQueriesFoldedColumn(t *testing.T) {
	q := &recordingQuerier{}
	store := NewStore(q)

	_, err := store.SearchByName(context.Background(), "Café", 10)
	require.ErrorIs(t, err, errRecorded)
	require.Contains(t, q.sql, "name_folded")
	require.Equal(t, "cafe", q.args[0])
}

func TestInsertStoresFoldedName(t *testing.T) {
	q := &recordingQuerier{}
	store := NewStore(q)

	_, err := store.Insert(context.Background(), Product{Name: "Açúcar Cristal"})
	require.ErrorIs(t, err, errRecorded)
	require.Contains(t, q.sql, "name_folded")
	require.Equal(t, "acucar cristal", q.args[1])
}

func TestUpdateStoresFoldedName(t *testing.T) {
	q := &recordingQuerier{}
	store := NewStore(q)

	err := store.Update(context.Background(), Product{ID: 1, Name: "Feijão Carioca"})
	require.ErrorIs(t, err, errRecorded)
	require.Contains(t, q.sql, "name_folded")
	require.Equal(t, "feijao carioca", q.args[1])
}
