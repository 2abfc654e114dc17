package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chippagiri-sritha/naariguard-server/internal/capture"
	"github.com/chippagiri-sritha/naariguard-server/internal/config"
	"github.com/chippagiri-sritha/naariguard-server/internal/detection"
	"github.com/chippagiri-sritha/naariguard-server/internal/escalation"
	"github.com/chippagiri-sritha/naariguard-server/internal/pipeline"
	"github.com/chippagiri-sritha/naariguard-server/internal/recordings"
	"github.com/chippagiri-sritha/naariguard-server/internal/storage/sqlite"
	"github.com/chippagiri-sritha/naariguard-server/internal/transcription"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	transcriber transcription.Transcriber
	matcher     *detection.Matcher
	keywords    *detection.KeywordSet
	processor   *pipeline.Processor
	recordings  *recordings.Store
	contacts    *sqlite.ContactStorage
	dispatcher  *escalation.Dispatcher
	config      *config.Config
	logger      *logger.Logger
	started     time.Time
}

// NewHandler creates a new API handler
func NewHandler(
	transcriber transcription.Transcriber,
	matcher *detection.Matcher,
	keywords *detection.KeywordSet,
	processor *pipeline.Processor,
	recordingStore *recordings.Store,
	contacts *sqlite.ContactStorage,
	dispatcher *escalation.Dispatcher,
	config *config.Config,
	logger *logger.Logger,
) *Handler {
	return &Handler{
		transcriber: transcriber,
		matcher:     matcher,
		keywords:    keywords,
		processor:   processor,
		recordings:  recordingStore,
		contacts:    contacts,
		dispatcher:  dispatcher,
		config:      config,
		logger:      logger.Named("api-handler"),
		started:     time.Now(),
	}
}

// processAudioRequest is the body of POST /audio/process
type processAudioRequest struct {
	AudioBlob         string   `json:"audioBlob"`
	EmergencyKeywords []string `json:"emergencyKeywords"`
}

// notifyRequest is the body of POST /alerts/notify
type notifyRequest struct {
	UserID   string `json:"userId"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

// notifyResponse is the body of the alert dispatch response
type notifyResponse struct {
	Success       bool                      `json:"success"`
	Notifications []escalation.Notification `json:"notifications,omitempty"`
	Message       string                    `json:"message"`
}

// createRecordingRequest is the body of POST /recordings
type createRecordingRequest struct {
	AudioBlob         string   `json:"audioBlob"`
	DurationSeconds   float64  `json:"durationSeconds"`
	EmergencyKeywords []string `json:"emergencyKeywords"`
}

// contactRequest is the body of contact create/update calls
type contactRequest struct {
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Relationship       string `json:"relationship"`
	IsEmergencyContact bool   `json:"is_emergency_contact"`
	IsSharing          bool   `json:"is_sharing"`
	Priority           int    `json:"priority"`
}

// ProcessAudio transcribes an audio clip and scans it for emergency
// keywords and urgency phrases
func (h *Handler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	var req processAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AudioBlob == "" {
		h.respondError(w, http.StatusBadRequest, "audioBlob is required")
		return
	}

	artifact, err := decodeAudioBlob(req.AudioBlob)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid audio data")
		return
	}

	transcript, err := h.transcriber.Transcribe(r.Context(), artifact)
	if err != nil {
		h.respondTranscriptionError(w, err)
		return
	}

	set := h.keywords
	if len(req.EmergencyKeywords) > 0 {
		set = set.With(req.EmergencyKeywords...)
	}

	matched := h.matcher.Match(transcript, set)
	result := detection.NewResult(transcript, matched, set.Len())

	h.respondJSON(w, http.StatusOK, result)
}

// NotifyAlert dispatches an emergency alert to the user's contacts
func (h *Handler) NotifyAlert(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		h.respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	notifications, err := h.dispatcher.Dispatch(r.Context(), req.UserID, req.Message, req.Location)
	if err != nil {
		if errors.Is(err, escalation.ErrNoContactsConfigured) {
			h.respondJSON(w, http.StatusOK, notifyResponse{
				Success: false,
				Message: "No emergency contacts found",
			})
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to send notifications")
		return
	}

	h.respondJSON(w, http.StatusOK, notifyResponse{
		Success:       true,
		Notifications: notifications,
		Message:       fmt.Sprintf("Emergency notifications sent to %d contacts", len(notifications)),
	})
}

// CreateRecording runs a clip through the full pipeline and persists it
func (h *Handler) CreateRecording(w http.ResponseWriter, r *http.Request) {
	ownerID := h.ownerID(w, r)
	if ownerID == "" {
		return
	}

	var req createRecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AudioBlob == "" {
		h.respondError(w, http.StatusBadRequest, "audioBlob is required")
		return
	}

	artifact, err := decodeAudioBlob(req.AudioBlob)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid audio data")
		return
	}
	if req.DurationSeconds > 0 {
		artifact.Duration = time.Duration(req.DurationSeconds * float64(time.Second))
	}

	outcome, err := h.processor.Process(r.Context(), ownerID, artifact, req.EmergencyKeywords)
	if err != nil {
		if errors.Is(err, recordings.ErrPersistenceFailed) {
			h.respondError(w, http.StatusInternalServerError, "failed to save recording")
			return
		}
		h.respondTranscriptionError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"recording":     outcome.Recording,
		"detection":     outcome.Detection,
		"notifications": outcome.Notifications,
	})
}

// ListRecordings returns the caller's recordings, newest first
func (h *Handler) ListRecordings(w http.ResponseWriter, r *http.Request) {
	ownerID := h.ownerID(w, r)
	if ownerID == "" {
		return
	}

	list, err := h.recordings.List(ownerID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list recordings")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"recordings": list,
		"count":      len(list),
	})
}

// DeleteRecording removes a recording and its audio
func (h *Handler) DeleteRecording(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.recordings.Delete(id); err != nil {
		if errors.Is(err, recordings.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "recording not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to delete recording")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// StreamRecordingAudio serves a recording's audio over a signed locator
func (h *Handler) StreamRecordingAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	exp, err := strconv.ParseInt(r.URL.Query().Get("exp"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusForbidden, "invalid playback link")
		return
	}
	sig := r.URL.Query().Get("sig")

	reader, err := h.recordings.OpenAudio(id, exp, sig)
	if err != nil {
		if errors.Is(err, recordings.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "recording not found")
			return
		}
		h.respondError(w, http.StatusForbidden, "invalid playback link")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", capture.ContentType)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("Failed to stream recording audio", logger.Error(err))
	}
}

// ListContacts returns the caller's trust circle, ascending priority
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	ownerID := h.ownerID(w, r)
	if ownerID == "" {
		return
	}

	list, err := h.contacts.ListByOwner(ownerID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	if list == nil {
		list = []*sqlite.ContactRecord{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"contacts": list,
		"count":    len(list),
	})
}

// CreateContact adds a contact to the caller's trust circle
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	ownerID := h.ownerID(w, r)
	if ownerID == "" {
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Phone == "" {
		h.respondError(w, http.StatusBadRequest, "name and phone are required")
		return
	}
	if req.Priority <= 0 {
		req.Priority = 1
	}

	now := time.Now().UTC()
	record := &sqlite.ContactRecord{
		ID:                 uuid.NewString(),
		UserID:             ownerID,
		Name:               req.Name,
		Phone:              req.Phone,
		Email:              req.Email,
		Relationship:       req.Relationship,
		IsEmergencyContact: req.IsEmergencyContact,
		IsSharing:          req.IsSharing,
		Priority:           req.Priority,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := h.contacts.Store(record); err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to create contact")
		return
	}

	h.respondJSON(w, http.StatusCreated, record)
}

// UpdateContact modifies an existing contact
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	ownerID := h.ownerID(w, r)
	if ownerID == "" {
		return
	}
	id := chi.URLParam(r, "id")

	record, err := h.contacts.GetByID(id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "contact not found")
		return
	}
	if record.UserID != ownerID {
		h.respondError(w, http.StatusNotFound, "contact not found")
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Phone == "" {
		h.respondError(w, http.StatusBadRequest, "name and phone are required")
		return
	}
	if req.Priority <= 0 {
		req.Priority = record.Priority
	}

	record.Name = req.Name
	record.Phone = req.Phone
	record.Email = req.Email
	record.Relationship = req.Relationship
	record.IsEmergencyContact = req.IsEmergencyContact
	record.IsSharing = req.IsSharing
	record.Priority = req.Priority

	if err := h.contacts.Update(record); err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to update contact")
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// DeleteContact removes a contact from the caller's trust circle
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	ownerID := h.ownerID(w, r)
	if ownerID == "" {
		return
	}
	id := chi.URLParam(r, "id")

	record, err := h.contacts.GetByID(id)
	if err != nil || record.UserID != ownerID {
		h.respondError(w, http.StatusNotFound, "contact not found")
		return
	}

	if err := h.contacts.Delete(id); err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to delete contact")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetKeywords returns a summary of the active keyword catalogue
func (h *Handler) GetKeywords(w http.ResponseWriter, r *http.Request) {
	custom := h.config.Detection.CustomKeywords
	if custom == nil {
		custom = []string{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"totalKeywords":   h.keywords.Len(),
		"defaultKeywords": detection.DefaultKeywordCount(),
		"customKeywords":  custom,
	})
}

// GetHealth returns the health status of the server
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).String(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ownerID extracts the caller identity header, responding 400 when missing
func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) string {
	ownerID := r.Header.Get("X-User-ID")
	if ownerID == "" {
		h.respondError(w, http.StatusBadRequest, "X-User-ID header is required")
	}
	return ownerID
}

// respondTranscriptionError maps transcription failures to status codes
func (h *Handler) respondTranscriptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transcription.ErrRateLimited):
		h.respondError(w, http.StatusTooManyRequests, "transcription rate limit exceeded")
	case errors.Is(err, transcription.ErrQuotaExceeded):
		h.respondError(w, http.StatusPaymentRequired, "transcription quota exceeded")
	default:
		h.respondError(w, http.StatusInternalServerError, "failed to process audio")
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// decodeAudioBlob decodes a base64 payload, with or without a data URL
// prefix, into a capture artifact
func decodeAudioBlob(blob string) (*capture.Artifact, error) {
	contentType := capture.ContentType
	payload := blob

	if strings.HasPrefix(blob, "data:") {
		comma := strings.Index(blob, ",")
		if comma < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		header := blob[len("data:"):comma]
		if semi := strings.Index(header, ";"); semi >= 0 {
			header = header[:semi]
		}
		if header != "" {
			contentType = header
		}
		payload = blob[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}

	return &capture.Artifact{
		Data:        data,
		ContentType: contentType,
	}, nil
}
