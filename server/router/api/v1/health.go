package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/backstage/internal/observability"
	"github.com/hrygo/backstage/internal/version"
)

// MetricsSource reports dispatcher counters.
type MetricsSource interface {
	Snapshot() *observability.MetricsSnapshot
}

type HealthResponse struct {
	Status      string                         `json:"status"`
	Version     string                         `json:"version"`
	Mode        string                         `json:"mode"`
	SuccessRate float64                        `json:"success_rate"`
	Metrics     *observability.MetricsSnapshot `json:"metrics,omitempty"`
}

// GetHealth reports liveness and the message counters.
// GET /healthz
func (s *APIV1Service) GetHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:      "ok",
		Version:     version.GetCurrentVersion(s.Profile.Mode),
		Mode:        s.Profile.Mode,
		SuccessRate: 100,
	}
	if s.Metrics != nil {
		resp.Metrics = s.Metrics.Snapshot()
		resp.SuccessRate = resp.Metrics.SuccessRate()
	}
	return c.JSON(http.StatusOK, resp)
}
