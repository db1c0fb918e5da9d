package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Paracetamol", "paracetamol"},
		{"upper", "PARACETAMOL", "paracetamol"},
		{"padded", "  Amoxicillin 250mg  ", "amoxicillin 250mg"},
		{"blank", "   ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeName(tt.in))
		})
	}
}

func TestReconcileIdempotence(t *testing.T) {
	// End-to-end idempotence (second run creates zero records) is covered
	// at the store layer by TestInsertMatchIdempotence; exercising it here
	// would require a database plus Redis and Kafka.
	t.Skip("Integration test - requires database, Redis and Kafka")
}
