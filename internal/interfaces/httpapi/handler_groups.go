package httpapi

import (
	"net/http"

	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGroups")
	defer span.End()

	groups, err := h.trackingService.ListGroups(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, toGroupDTOs(groups))
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGroup")
	defer span.End()

	group, err := h.trackingService.Group(ctx, r.PathValue("groupID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, toGroupDTO(group))
}

func (h *Handler) TrackPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TrackPlayers")
	defer span.End()

	var req trackPlayersRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.trackingService.Track(ctx, usecase.TrackInput{
		GroupID:       r.PathValue("groupID"),
		Players:       req.Players,
		DefaultRegion: req.Region,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if len(result.Outcomes) > 0 && result.Failed() == len(result.Outcomes) {
		status = http.StatusUnprocessableEntity
	}
	writeSuccess(w, status, result)
}

func (h *Handler) UntrackPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UntrackPlayer")
	defer span.End()

	groupID := r.PathValue("groupID")
	removed, err := h.trackingService.Untrack(ctx, groupID, r.PathValue("label"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, untrackResponse{GroupID: groupID, Removed: removed})
}

func (h *Handler) SetSink(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetSink")
	defer span.End()

	var req setSinkRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	group, err := h.trackingService.SetSink(ctx, r.PathValue("groupID"), req.SinkID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, toGroupDTO(group))
}
