package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"locdecoder/internal/core/model"
	"locdecoder/internal/core/repository"
	"locdecoder/internal/core/service"
	"locdecoder/internal/protocol/gt06"
)

const maxListLimit = 1000

type PositionHandler struct {
	positionService service.PositionService
	logger          *zap.Logger
}

func NewPositionHandler(positionService service.PositionService, logger *zap.Logger) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
		logger:          logger,
	}
}

type rawDataRequest struct {
	DeviceID string `json:"deviceId"`
	RawData  string `json:"rawData"` // hex encoded packet
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Reason: gt06.Reason(err)})
}

// ProcessRawData decodes a hex packet for a device and stores the position.
func (h *PositionHandler) ProcessRawData(w http.ResponseWriter, r *http.Request) {
	var req rawDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if req.DeviceID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Device ID required"})
		return
	}

	position, err := h.positionService.ProcessHex(r.Context(), req.DeviceID, req.RawData)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, position)
	case errors.Is(err, gt06.ErrInvalidHex), errors.Is(err, service.ErrInvalidDeviceID):
		writeError(w, http.StatusBadRequest, err)
	case gt06.Reason(err) != "":
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		h.logger.Error("Failed to process raw data", zap.String("deviceId", req.DeviceID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to store position"})
	}
}

// parseTimeParam reads an optional RFC3339 query parameter.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

// GetPositions lists a device's history, newest first. Optional from/to
// (RFC3339, inclusive) bound the device time.
func (h *PositionHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Device ID required"})
		return
	}

	query := repository.PositionQuery{Limit: 100}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid limit"})
			return
		}
		query.Limit = min(n, maxListLimit)
	}

	var err error
	if query.From, err = parseTimeParam(r, "from"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid from, expected RFC3339"})
		return
	}
	if query.To, err = parseTimeParam(r, "to"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid to, expected RFC3339"})
		return
	}

	positions, err := h.positionService.GetDevicePositions(r.Context(), deviceID, query)
	if errors.Is(err, service.ErrInvalidTimeRange) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.logger.Error("Failed to list positions", zap.String("deviceId", deviceID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to list positions"})
		return
	}
	if positions == nil {
		positions = []*model.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

// GetAllLatestPositions lists the newest position of every device.
func (h *PositionHandler) GetAllLatestPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionService.GetAllLatestPositions(r.Context())
	if err != nil {
		h.logger.Error("Failed to list latest positions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to list positions"})
		return
	}
	if positions == nil {
		positions = []*model.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

func (h *PositionHandler) GetLatestPosition(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Device ID required"})
		return
	}

	position, err := h.positionService.GetLatestPosition(r.Context(), deviceID)
	if err != nil {
		h.logger.Error("Failed to load latest position", zap.String("deviceId", deviceID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load position"})
		return
	}
	if position == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No position found"})
		return
	}
	writeJSON(w, http.StatusOK, position)
}
