package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/device-monitor/internal/db"
	"github.com/ukydev/device-monitor/internal/middleware"
	"github.com/ukydev/device-monitor/internal/models"
	"github.com/ukydev/device-monitor/internal/plugin"
	"github.com/ukydev/device-monitor/internal/scheduler"
)

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 500
	maxBodyBytes       = 1 << 20
)

// ServiceControl is the startService/stopService boundary.
type ServiceControl interface {
	StartService(args plugin.StartArgs) (string, error)
	StopService() (string, error)
}

// NotificationSource returns the notification currently posted under an id.
type NotificationSource interface {
	Get(id int) (models.Notification, bool)
}

// StateSource reports whether the sampling loop is running.
type StateSource interface {
	State() scheduler.State
}

// ServiceHandler serves the control API used by the hosting application.
type ServiceHandler struct {
	control        ServiceControl
	notifications  NotificationSource
	notificationID int
	state          StateSource
	records        db.RecordCollection
}

// NewServiceHandler creates a new control API handler. records may be nil.
func NewServiceHandler(control ServiceControl, notifications NotificationSource, notificationID int, state StateSource, records db.RecordCollection) *ServiceHandler {
	return &ServiceHandler{
		control:        control,
		notifications:  notifications,
		notificationID: notificationID,
		state:          state,
		records:        records,
	}
}

type resultResponse struct {
	Result string `json:"result"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	State        scheduler.State      `json:"state"`
	Notification *models.Notification `json:"notification"`
}

// Start handles startService
func (h *ServiceHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var args plugin.StartArgs
	if err := json.Unmarshal(body, &args); err != nil {
		writeError(w, plugin.ErrInvalidArgument)
		return
	}

	logger := requestLogger(r)
	result, err := h.control.StartService(args)
	if err != nil {
		logger.WithError(err).Warn("startService rejected")
		writeError(w, err)
		return
	}
	logger.Info("startService accepted")
	writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

// Stop handles stopService
func (h *ServiceHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := requestLogger(r)
	result, err := h.control.StopService()
	if err != nil {
		logger.WithError(err).Warn("stopService failed")
		writeError(w, err)
		return
	}
	logger.Info("stopService accepted")
	writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

// Status reports the loop state and the current status notification
func (h *ServiceHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := StatusResponse{State: h.state.State()}
	if n, ok := h.notifications.Get(h.notificationID); ok {
		resp.Notification = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

// Records lists mirrored log records for a user, newest first
func (h *ServiceHandler) Records(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.records == nil {
		http.Error(w, "Record mirror not configured", http.StatusNotFound)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	limit := int64(defaultRecordLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxRecordLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.records.FindRecords(ctx, userID, limit)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to query mirrored records")
		http.Error(w, "Failed to fetch records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.LogRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Health reports liveness
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// requestLogger tags entries with the calling host application.
func requestLogger(r *http.Request) *log.Entry {
	appID := "unknown"
	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok {
		appID = claims.AppID
	}
	return log.WithField("app_id", appID)
}

func writeError(w http.ResponseWriter, err error) {
	var perr *plugin.Error
	if !errors.As(err, &perr) {
		perr = &plugin.Error{Code: plugin.CodeServiceFailure, Message: err.Error()}
	}

	status := http.StatusInternalServerError
	switch perr.Code {
	case plugin.CodeInvalidArgument:
		status = http.StatusBadRequest
	case plugin.CodePermissionDenied:
		status = http.StatusForbidden
	}
	writeJSON(w, status, errorResponse{Code: perr.Code, Message: perr.Message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}
