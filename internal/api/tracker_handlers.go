package api

import (
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/mango-tracker/internal/models"
	"github.com/vrsandeep/mango-tracker/internal/tracker"
)

type trackerResponse struct {
	Items  []models.TrackedBook `json:"items"`
	Total  int                  `json:"total"`
	Facets tracker.Facets       `json:"facets"`
}

// splitParam reads a comma separated multi-value query parameter.
func splitParam(r *http.Request, name string) []string {
	var values []string
	for _, v := range strings.Split(r.URL.Query().Get(name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// respondWithList filters the refreshed list with the request's filter and
// reports the facets of the whole list.
func respondWithList(w http.ResponseWriter, r *http.Request, list []models.TrackedBook) {
	filter := tracker.Filter{
		Title:    r.URL.Query().Get("title"),
		Sources:  splitParam(r, "source"),
		Types:    splitParam(r, "type"),
		Statuses: splitParam(r, "status"),
		Tags:     splitParam(r, "tag"),
	}
	items := tracker.Apply(list, filter)
	RespondWithJSON(w, http.StatusOK, trackerResponse{
		Items:  items,
		Total:  len(list),
		Facets: tracker.FacetsOf(list),
	})
}

func (s *Server) handleListTracker(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Tracker().List(r.Context(), getSessionFromContext(r))
	if err != nil {
		log.Warnf("list tracker: %v", err)
		respondWithBackendError(w, err)
		return
	}
	respondWithList(w, r, list)
}

func (s *Server) handleSaveTracker(w http.ResponseWriter, r *http.Request) {
	var upd models.ReadingListUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil || upd.Title == "" {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	list, err := s.app.Tracker().Save(r.Context(), getSessionFromContext(r), upd)
	if err != nil {
		log.Warnf("save tracker entry: %v", err)
		respondWithBackendError(w, err)
		return
	}
	respondWithList(w, r, list)
}

func decodeBookRef(w http.ResponseWriter, r *http.Request) (models.BookRef, bool) {
	var ref models.BookRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil || ref.Title == "" {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return ref, false
	}
	return ref, true
}

func (s *Server) handleDeleteTracker(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeBookRef(w, r)
	if !ok {
		return
	}
	list, err := s.app.Tracker().Remove(r.Context(), getSessionFromContext(r), ref)
	if err != nil {
		log.Warnf("delete tracker entry: %v", err)
		respondWithBackendError(w, err)
		return
	}
	respondWithList(w, r, list)
}

func (s *Server) handleCatchUpTracker(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeBookRef(w, r)
	if !ok {
		return
	}
	list, err := s.app.Tracker().CatchUp(r.Context(), getSessionFromContext(r), ref)
	if err != nil {
		log.Warnf("catch up tracker entry: %v", err)
		respondWithBackendError(w, err)
		return
	}
	respondWithList(w, r, list)
}
