package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/mango-tracker/internal/websocket"
)

// handleBrowseSocket runs a browse view over a websocket. The client gets the
// genre options right after the initial state.
func (s *Server) handleBrowseSocket(w http.ResponseWriter, r *http.Request) {
	client, err := websocket.ServeBrowse(s.app.WsHub(), w, r, s.app.Catalog(), s.app.BrowseOptions())
	if err != nil {
		log.Warnf("browse websocket: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	list, err := s.app.Genres().List(ctx)
	if err != nil {
		log.Warnf("browse websocket: genres unavailable: %v", err)
		return
	}
	client.Send("genres", list)
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Genres().List(r.Context())
	if err != nil {
		log.Warnf("list genres: %v", err)
		RespondWithError(w, http.StatusBadGateway, "Failed to fetch genres")
		return
	}
	RespondWithJSON(w, http.StatusOK, list)
}
