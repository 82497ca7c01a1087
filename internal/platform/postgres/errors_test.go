package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/deckhand-app/deckhand-api/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantIs   error
		wantSame bool
	}{
		{
			name:   "no rows maps to not found",
			err:    sql.ErrNoRows,
			wantIs: store.ErrNotFound,
		},
		{
			name:   "unique violation maps to duplicate",
			err:    &pgconn.PgError{Code: uniqueViolationCode},
			wantIs: store.ErrDuplicate,
		},
		{
			name:   "foreign key violation maps to invalid entity",
			err:    &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "flashcards_deck_id_fkey"},
			wantIs: store.ErrInvalidEntity,
		},
		{
			name:   "check violation maps to invalid entity",
			err:    &pgconn.PgError{Code: checkViolationCode, ConstraintName: "flashcards_ease_factor_check"},
			wantIs: store.ErrInvalidEntity,
		},
		{
			name:   "not null violation maps to invalid entity",
			err:    &pgconn.PgError{Code: notNullViolationCode, ColumnName: "front"},
			wantIs: store.ErrInvalidEntity,
		},
		{
			name:     "unrelated error passes through",
			err:      errors.New("connection refused"),
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.wantSame {
				assert.Equal(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.wantIs)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, MapError(nil))
	})
}

func TestViolationPredicates(t *testing.T) {
	unique := &pgconn.PgError{Code: uniqueViolationCode}
	fk := &pgconn.PgError{Code: foreignKeyViolationCode}
	check := &pgconn.PgError{Code: checkViolationCode}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(check))

	assert.True(t, IsCheckConstraintViolation(check))
	assert.False(t, IsCheckConstraintViolation(unique))

	// wrapped errors still match
	wrapped := fmt.Errorf("insert failed: %w", unique)
	assert.True(t, IsUniqueViolation(wrapped))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(store.ErrCardNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("lookup: %w", store.ErrDeckNotFound)))
	assert.False(t, IsNotFoundError(errors.New("boom")))
}
