package httpapi

import "net/http"

// RunPollJob runs one poll cycle synchronously; an overlapping call gets 409.
func (h *Handler) RunPollJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPollJob")
	defer span.End()

	report, err := h.pollRunner.RunCycle(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "poll job finished", "cycle_id", report.CycleID, "alerts", report.Alerts)
	writeSuccess(w, http.StatusOK, pollJobResponse{Report: report, Duration: report.Duration.String()})
}
