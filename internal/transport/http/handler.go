package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coderoom/sync-service/internal/domain"
	"github.com/coderoom/sync-service/internal/service"
	"github.com/coderoom/sync-service/pkg/logger"
)

type Handler struct {
	roomSvc *service.RoomService
}

func NewHandler(room *service.RoomService) *Handler {
	return &Handler{roomSvc: room}
}

type CreateRoomRequest struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type ListRoomsResponse struct {
	Rooms      []domain.Room `json:"rooms"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func logError(ctx context.Context, op string, err error) {
	attrs := append(logger.AttrsFromCtx(ctx), slog.String("err", err.Error()))
	slog.LogAttrs(ctx, slog.LevelError, op, attrs...)
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.UserID == "" || req.UserName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "userId and userName are required"})
		return
	}

	room, err := h.roomSvc.CreateRoom(r.Context(), req.Name, req.Language, req.UserID, req.UserName)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownLanguage) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logError(r.Context(), "handler.CreateRoom", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// GET /rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")

	rooms, next, err := h.roomSvc.ListRooms(r.Context(), limit, cursor)
	if err != nil {
		logError(r.Context(), "handler.ListRooms", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ListRoomsResponse{Rooms: rooms, NextCursor: next})
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	room, err := h.roomSvc.GetRoom(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		logError(r.Context(), "handler.GetRoom", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// PUT /rooms/{id}: clients push their current snapshot for persistence.
func (h *Handler) SaveRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var room domain.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if room.ID == "" {
		room.ID = id
	}
	if room.ID != id {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "room id mismatch"})
		return
	}

	if err := h.roomSvc.SaveRoom(r.Context(), &room); err != nil {
		logError(r.Context(), "handler.SaveRoom", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// DELETE /rooms/{id}
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.roomSvc.DeleteRoom(r.Context(), id); err != nil {
		logError(r.Context(), "handler.DeleteRoom", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
