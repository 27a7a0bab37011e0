package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// apiResponse is the JSON envelope for the intake endpoints.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type startSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// Terminal client-facing messages for the upload pipeline.
const (
	msgNoFiles        = "No files were uploaded."
	msgInvalidSession = "Invalid session ID."
	msgTypeNotAllowed = "File type not allowed. Only images, videos, documents, and archives are accepted."
	msgInfected       = "File is infected and has been deleted."
	msgTooLarge       = "File exceeds the maximum upload size."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// startSessionHandler handles POST /start-session. It registers a fresh
// session and eagerly creates its upload directory.
func (s *Server) startSessionHandler(w http.ResponseWriter, r *http.Request) {
	rid := RequestIDFromContext(r.Context())

	sess, err := s.store.Create()
	if err != nil {
		log.Printf("rid=%s msg=%q err=%v", rid, "session_create_failed", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Message: err.Error()})
		return
	}

	log.Printf("rid=%s msg=%q session=%s dir=%s", rid, "session_started", sess.ID, sess.Dir)
	writeJSON(w, http.StatusOK, startSessionResponse{SessionID: sess.ID})
}

// uploadHandler drives one upload through validate → persist → scan →
// notify. Scan errors, scanner absence, notification failures and mirror
// failures never fail an upload that was validly persisted; only an
// infected verdict does, deleting the file first.
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	rid := RequestIDFromContext(r.Context())

	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}

	filePart, err := findFilePart(r)
	if err != nil {
		if isMaxBytesError(err) {
			uploadsTotal.WithLabelValues("too_large").Inc()
			writeJSON(w, http.StatusRequestEntityTooLarge, apiResponse{Message: msgTooLarge})
			return
		}
		uploadsTotal.WithLabelValues("no_file").Inc()
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: msgNoFiles})
		return
	}
	defer filePart.Close()

	sessionID := r.Header.Get("X-Session-Id")
	sess, ok := s.store.Lookup(sessionID)
	if sessionID == "" || !ok {
		uploadsTotal.WithLabelValues("invalid_session").Inc()
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: msgInvalidSession})
		return
	}

	contentType := filePart.Header.Get("Content-Type")
	if !mimeAllowed(contentType) {
		uploadsTotal.WithLabelValues("type_not_allowed").Inc()
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: msgTypeNotAllowed})
		return
	}

	name := sanitizeFilename(filePart.FileName())
	dst := filepath.Join(sess.Dir, name)

	log.Printf("rid=%s msg=%q session=%s file=%q type=%s", rid, "upload_started", sess.ID, name, contentType)

	written, err := persistFile(dst, filePart)
	if err != nil {
		// Drop any partial write; overwrite semantics make this safe.
		_ = os.Remove(dst)

		if isMaxBytesError(err) {
			uploadsTotal.WithLabelValues("too_large").Inc()
			writeJSON(w, http.StatusRequestEntityTooLarge, apiResponse{Message: msgTooLarge})
			return
		}

		log.Printf("rid=%s msg=%q file=%q err=%v", rid, "persist_failed", name, err)
		uploadsTotal.WithLabelValues("persist_error").Inc()
		writeJSON(w, http.StatusInternalServerError, apiResponse{Message: err.Error()})
		return
	}
	uploadBytesTotal.Add(float64(written))

	verdict := s.scanner.Scan(r.Context(), dst)
	scanVerdictsTotal.WithLabelValues(verdict.String()).Inc()

	switch verdict {
	case ScanInfected:
		if err := os.Remove(dst); err != nil {
			log.Printf("rid=%s msg=%q file=%q err=%v", rid, "infected_delete_failed", name, err)
		}
		log.Printf("rid=%s msg=%q session=%s file=%q", rid, "infected_file_deleted", sess.ID, name)
		uploadsTotal.WithLabelValues("infected").Inc()
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: msgInfected})
		return
	case ScanUnavailable:
		log.Printf("rid=%s msg=%q file=%q", rid, "scan_skipped_no_scanner", name)
	case ScanError:
		log.Printf("rid=%s msg=%q file=%q", rid, "scan_error_ignored", name)
	}

	if s.mirror != nil {
		// Detached from the request: the response must not wait on object
		// storage, and the mirror carries its own timeout.
		go func() {
			if err := s.mirror.Store(context.Background(), sess.ID, name, dst, contentType); err != nil {
				log.Printf("rid=%s msg=%q session=%s file=%q err=%v", rid, "mirror_failed", sess.ID, name, err)
				mirrorOpsTotal.WithLabelValues("error").Inc()
				return
			}
			mirrorOpsTotal.WithLabelValues("ok").Inc()
		}()
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("File %s has been uploaded.", name)
		if err := s.notifier.Notify(r.Context(), msg); err != nil {
			log.Printf("rid=%s msg=%q err=%v", rid, "notify_failed", err)
			notificationsTotal.WithLabelValues("error").Inc()
		} else {
			notificationsTotal.WithLabelValues("sent").Inc()
		}
	}

	log.Printf("rid=%s msg=%q session=%s file=%q bytes=%d verdict=%s",
		rid, "upload_complete", sess.ID, name, written, verdict)
	uploadsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

// findFilePart streams through the multipart body until it reaches the
// "file" field. A non-multipart body or a body without that field counts
// as "no files were uploaded".
func findFilePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New("no file part")
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
	}
}

// persistFile streams the payload to dst, overwriting an existing file of
// the same name within the session (last writer wins).
func persistFile(dst string, src io.Reader) (int64, error) {
	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// isMaxBytesError reports whether err came from http.MaxBytesReader.
func isMaxBytesError(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
