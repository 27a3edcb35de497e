package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomcast/server/internal/service/room"
	"github.com/roomcast/server/pkg/rest"
)

type createRoomResponse struct {
	RoomId string `json:"room_id"`
}

// createRoom mints a fresh room id. The room itself comes to life when the
// first participant connects to it.
func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": createRoomResponse{
		RoomId: c.roomService.NewRoomId(),
	}})
}

type validateJoinRoomRequest struct {
	DisplayName   string `json:"display_name" validate:"max=32"`
	IdentityToken string `json:"identity_token"`
}

type validateJoinRoomResponse struct {
	ConnectToken string `json:"connect_token"`
}

// validateJoinRoom is the first step of the join handshake: it validates the
// profile, verifies the optional identity token and returns a single-use
// connect token for the websocket upgrade.
func (c controller) validateJoinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	var req validateJoinRoomRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.InfoContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.InfoContext(r.Context(), "failed to validate request", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	connectToken, err := c.roomService.CreateJoinSession(r.Context(), &room.CreateJoinSessionParams{
		RoomId:        roomId,
		DisplayName:   req.DisplayName,
		IdentityToken: req.IdentityToken,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to create join session", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": validateJoinRoomResponse{
		ConnectToken: connectToken,
	}})
}

// search resolves a media query to playable items.
func (c controller) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "q is required"})
		return
	}

	items, err := c.searchProvider.Search(r.Context(), query)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to search", "query", query, "error", err)
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": items})
}
