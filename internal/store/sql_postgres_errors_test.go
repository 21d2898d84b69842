package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPgError(t *testing.T) {
	tests := []struct {
		code string
		want ErrorClassification
	}{
		{pgerrcode.InvalidAuthorizationSpecification, Unauthorized},
		{pgerrcode.InvalidPassword, Unauthorized},
		{pgerrcode.InsufficientPrivilege, Unauthorized},
		{pgerrcode.ConnectionFailure, Retryable},
		{pgerrcode.SQLClientUnableToEstablishSQLConnection, Retryable},
		{pgerrcode.SerializationFailure, Retryable},
		{pgerrcode.DeadlockDetected, Retryable},
		{pgerrcode.CannotConnectNow, Retryable},
		{pgerrcode.AdminShutdown, Retryable},
		{pgerrcode.UniqueViolation, NonRetryable},
		{pgerrcode.UndefinedTable, NonRetryable},
		{"XX000", NonRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPgError(&pgconn.PgError{Code: tt.code}))
		})
	}
}

func TestPostgresErrorClassifier_Classify(t *testing.T) {
	c := NewPostgresErrorClassifier()

	assert.Equal(t, NonRetryable, c.Classify(nil))
	assert.Equal(t, NonRetryable, c.Classify(errors.New("plain")))

	wrapped := errors.Join(errors.New("ctx"), &pgconn.PgError{Code: pgerrcode.InvalidPassword})
	assert.Equal(t, Unauthorized, c.Classify(wrapped))
}
