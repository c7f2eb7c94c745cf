// Package handler provides the HTTP handlers for the gateway's API surface.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/warpfn/gateway/internal/core"
	"github.com/warpfn/gateway/internal/server/respond"
)

// DefaultRuntime is assumed for uploads that do not name one.
const DefaultRuntime = "nodejs18"

const maxUploadBytes = 64 << 20

// FunctionHandler serves function upload and execution.
type FunctionHandler struct {
	store      core.MetadataStore
	blobs      core.BlobStore
	dispatcher core.JobDispatcher
	waiter     core.ResultWaiter
	logger     *slog.Logger
}

// NewFunctionHandler wires the handler to its collaborators.
func NewFunctionHandler(store core.MetadataStore, blobs core.BlobStore, dispatcher core.JobDispatcher, waiter core.ResultWaiter, logger *slog.Logger) *FunctionHandler {
	return &FunctionHandler{
		store:      store,
		blobs:      blobs,
		dispatcher: dispatcher,
		waiter:     waiter,
		logger:     logger,
	}
}

// Upload accepts a multipart code archive plus optional description and
// runtime fields, stores the blob and its metadata, and returns the new
// function id.
func (h *FunctionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	runtime := r.FormValue("runtime")
	if runtime == "" {
		runtime = DefaultRuntime
	}

	functionID := uuid.NewString()
	key := "functions/" + functionID + "/" + filepath.Base(header.Filename)

	bucket, err := h.blobs.Put(r.Context(), key, file)
	if err != nil {
		h.logger.Error("failed to store function code", "function_id", functionID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to store function code")
		return
	}

	rec := &core.FunctionRecord{
		FunctionID:  functionID,
		Runtime:     runtime,
		S3Bucket:    bucket,
		S3Key:       key,
		Description: r.FormValue("description"),
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.store.Put(r.Context(), rec); err != nil {
		h.logger.Error("failed to store function metadata", "function_id", functionID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to store function metadata")
		return
	}

	h.logger.Info("function uploaded", "function_id", functionID, "runtime", runtime, "key", key)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"functionId": functionID,
	})
}

type runRequest struct {
	FunctionID string          `json:"functionId"`
	InputData  json.RawMessage `json:"inputData"`
}

// Run resolves the function, enqueues a job for it, and blocks until the
// worker's result arrives or the wait deadline passes. Normal and timeout
// outcomes are both served with 200; only failures before dispatch surface
// as error codes.
func (h *FunctionHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FunctionID == "" {
		respond.Error(w, http.StatusBadRequest, "functionId is required")
		return
	}

	rec, err := h.store.Get(r.Context(), req.FunctionID)
	if err != nil {
		if errors.Is(err, core.ErrFunctionNotFound) {
			respond.Error(w, http.StatusNotFound, "function not found")
			return
		}
		h.logger.Error("metadata lookup failed", "function_id", req.FunctionID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to resolve function")
		return
	}

	job, err := h.dispatcher.Dispatch(r.Context(), rec, req.InputData)
	if err != nil {
		h.logger.Error("dispatch failed", "function_id", req.FunctionID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	result := h.waiter.Wait(r.Context(), job.RequestID)
	respond.Raw(w, http.StatusOK, result.Body())
}
