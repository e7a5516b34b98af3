package questions

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/quiz-app/backend/internal/importer"
	"github.com/quiz-app/backend/internal/models"
)

type Handler struct {
	service        *Service
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{service: service, maxUploadBytes: maxUploadBytes}
}

// Routes mounts the question API under /api/questions.
func (h *Handler) Routes(r *mux.Router) {
	api := r.PathPrefix("/api/questions").Subrouter()
	api.HandleFunc("/upload", h.Upload).Methods("POST")
	api.HandleFunc("/topics", h.ListTopics).Methods("GET")
	api.HandleFunc("/topic/{topic}", h.ListByTopic).Methods("GET")
	api.HandleFunc("/clear-all", h.ClearAll).Methods("DELETE")
	api.HandleFunc("/{id:[0-9]+}", h.GetQuestion).Methods("GET")
	api.HandleFunc("/{id}/mark-known", h.MarkKnown).Methods("PUT")
	api.HandleFunc("/{id}/increment-view", h.IncrementView).Methods("PUT")
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
				Error: fmt.Sprintf("File exceeds the %d byte upload limit", tooLarge.Limit),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "A spreadsheet must be sent in the 'file' field"})
		return
	}
	defer file.Close()

	resp, err := h.service.Import(r.Context(), file)
	if err != nil {
		var perr *importer.ParseError
		if errors.As(err, &perr) {
			log.Printf("[handler] Upload rejected: %v", perr)
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: perr.Msg})
			return
		}
		log.Printf("[handler] Upload error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save questions"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.Topics(r.Context())
	if err != nil {
		log.Printf("[handler] ListTopics error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list topics"})
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *Handler) ListByTopic(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	questions, err := h.service.ByTopic(r.Context(), topic)
	if err != nil {
		log.Printf("[handler] ListByTopic error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list questions"})
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(w, r)
	if !ok {
		return
	}

	question, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetQuestion", err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) MarkKnown(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkKnown(r.Context(), id); err != nil {
		h.writeError(w, "MarkKnown", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) IncrementView(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(w, r)
	if !ok {
		return
	}

	if err := h.service.IncrementView(r.Context(), id); err != nil {
		h.writeError(w, "IncrementView", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		log.Printf("[handler] ClearAll error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to clear questions"})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
		return
	}
	log.Printf("[handler] %s error: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
}

func questionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid question ID"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
