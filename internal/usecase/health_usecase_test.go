package usecase_test

import (
	"context"
	"errors"
	"testing"

	"nexulsly-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestHealthUsecase(t *testing.T) {
	t.Run("no dependencies", func(t *testing.T) {
		status, ok := usecase.NewHealthUsecase(nil).Check(context.Background())
		assert.True(t, ok)
		assert.Equal(t, map[string]string{"status": "ok"}, status)
	})

	t.Run("one dependency down", func(t *testing.T) {
		uc := usecase.NewHealthUsecase(map[string]usecase.HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		})

		status, ok := uc.Check(context.Background())
		assert.False(t, ok)
		assert.Equal(t, "degraded", status["status"])
		assert.Equal(t, "ok", status["database"])
		assert.Equal(t, "unavailable", status["redis"])
	})
}
