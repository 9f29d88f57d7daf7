package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributes_DropsSensitiveKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/cart"),
		attribute.String("session_token", "secret"),
		attribute.String("user.email", "a@b.c"),
	)

	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeError(t *testing.T) {
	assert.Nil(t, SafeError(nil))

	err := SafeError(errors.New(`duplicate key value violates unique constraint (SQLSTATE 23505)`))
	assert.EqualError(t, err, "duplicate key value violates unique constraint")
}
