package http

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/apierr"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

const maxAssetBytes = 5 << 20

var imageExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true}

// MountAssets serves question images. Uploads need quiz:create.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// POST /assets/quizzes/{quizID}  multipart file=
	r.With(rbac.Require(rbac.PermQuizCreate)).Post("/quizzes/{quizID}", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxAssetBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeErr(w, apierr.New(http.StatusBadRequest, "bad_request", errors.New("file required")))
			return
		}
		defer f.Close()
		ext := strings.ToLower(path.Ext(hdr.Filename))
		if !imageExt[ext] {
			writeErr(w, apierr.New(http.StatusBadRequest, "bad_request", errors.New("unsupported image type")))
			return
		}
		key := "quizzes/" + chi.URLParam(r, "quizID") + "/" + uuid.NewString() + ext
		if _, err := bs.Put(key, f); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
	})

	// GET /assets/*
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			writeErr(w, apierr.New(http.StatusNotFound, "not_found", errors.New("asset not found")))
			return
		}
		defer rc.Close()
		head, err := io.ReadAll(io.LimitReader(rc, 512))
		if err != nil {
			writeErr(w, err)
			return
		}
		ct := http.DetectContentType(head)
		if path.Ext(key) == ".svg" {
			ct = "image/svg+xml"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = w.Write(head)
		_, _ = io.Copy(w, rc)
	})
}
