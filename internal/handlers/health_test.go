package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func probe(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name           string
		checks         []HealthCheck
		expectedStatus int
		expectedHealth string
	}{
		{
			name:           "no dependencies",
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
		},
		{
			name: "all up",
			checks: []HealthCheck{
				{Name: "postgres", Critical: true, Probe: probe(nil)},
				{Name: "redis", Probe: probe(nil)},
			},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
		},
		{
			name: "redis down",
			checks: []HealthCheck{
				{Name: "postgres", Critical: true, Probe: probe(nil)},
				{Name: "redis", Probe: probe(errors.New("connection refused"))},
			},
			expectedStatus: http.StatusOK,
			expectedHealth: "degraded",
		},
		{
			name: "postgres down",
			checks: []HealthCheck{
				{Name: "postgres", Critical: true, Probe: probe(errors.New("connection refused"))},
				{Name: "redis", Probe: probe(errors.New("connection refused"))},
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(t, Health(zap.NewNop(), tt.checks...), http.MethodGet, "/health", "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedHealth, body["status"])
			assert.Len(t, body["dependencies"], len(tt.checks))
		})
	}
}
