package handler

import (
	"context"
	"log/slog"
	"net/http"

	"credit-engine/internal/api/handler/dto"
)

// IngestionStarter launches a background ingestion run and returns its id.
type IngestionStarter interface {
	Start(ctx context.Context) string
}

type IngestionHandler struct {
	job    IngestionStarter
	logger *slog.Logger
}

func NewIngestionHandler(job IngestionStarter, l *slog.Logger) *IngestionHandler {
	if job == nil {
		panic("ingestion job cannot be nil")
	}
	return &IngestionHandler{job: job, logger: l.With("component", "IngestionHandler")}
}

// TriggerRun handles POST /ingestion/runs
// @Summary Trigger a data ingestion run
// @Description Starts loading the customer and loan files in the background. Runs are serialized; a second trigger waits for the first.
// @Tags Ingestion
// @Produce json
// @Success 202 {object} dto.IngestionRunResponse "Run accepted"
// @Router /ingestion/runs [post]
func (h *IngestionHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	runID := h.job.Start(r.Context())
	h.logger.InfoContext(r.Context(), "Ingestion run accepted", slog.String("runID", runID))
	respondJSON(w, http.StatusAccepted, dto.IngestionRunResponse{RunID: runID, Status: dto.IngestionAccepted})
}
