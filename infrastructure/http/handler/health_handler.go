package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/oily/oily-api/infrastructure/http/response"
)

// Pinger is any dependency that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	components map[string]Pinger
	timeout    time.Duration
}

func NewHealthHandler(components map[string]Pinger) *HealthHandler {
	return &HealthHandler{components: components, timeout: 2 * time.Second}
}

type healthReport struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report := healthReport{Status: "UP", Components: make(map[string]string, len(h.components))}
	for name, component := range h.components {
		if err := component.Ping(ctx); err != nil {
			report.Components[name] = "DOWN"
			report.Status = "DOWN"
			continue
		}
		report.Components[name] = "UP"
	}

	if report.Status != "UP" {
		response.WriteJSON(w, http.StatusServiceUnavailable, response.Envelope{
			HTTPStatus: http.StatusServiceUnavailable,
			IsSuccess:  false,
			Message:    "일시적으로 서비스를 사용할 수 없습니다.",
			Code:       http.StatusServiceUnavailable,
			Result:     report,
		})
		return
	}
	response.OK(w, report)
}
