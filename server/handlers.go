package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bitfsorg/whochat/chat"
)

// Response bodies.
const (
	MsgNotFound = "Chat not found!"
	MsgPosted   = "Posted!"
	MsgDeleted  = "Deleted!"
)

// AccessRequest is the body of get and delete requests.
type AccessRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// PostRequest is the body of post requests.
type PostRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Content  string `json:"content"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	var req AccessRequest
	if !s.decode(w, r, &req) {
		return
	}
	text, err := s.store.Read(req.Name, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, text)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := s.store.Post(req.Name, req.Password, req.Content); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, MsgPosted)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req AccessRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.store.Delete(req.Name, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, MsgDeleted)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if s.Ready() {
		writeText(w, http.StatusOK, "ready")
		return
	}
	writeText(w, http.StatusServiceUnavailable, "not ready")
}

// decode reads a JSON body of at most maxBody bytes into v. On failure it
// writes the response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// StatusFor maps a chat error to its HTTP status code.
func StatusFor(err error) int {
	switch chat.Kind(err) {
	case chat.ErrInvalidName, chat.ErrEmptyPassword, chat.ErrEmptyContent:
		return http.StatusBadRequest
	case chat.ErrChatNotFound:
		return http.StatusNotFound
	case chat.ErrWrongPassword:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err with the sentinel's description only, so wrapped
// causes such as file paths stay in the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := MsgNotFound
	if status != http.StatusNotFound {
		if kind := chat.Kind(err); kind != nil {
			msg = kind.Error()
		} else {
			msg = chat.ErrInternal.Error()
		}
	}
	if status == http.StatusInternalServerError {
		s.log.Error().
			Str("rid", GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Err(err).
			Msg("request failed")
	}
	writeText(w, status, msg)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
