package wiki

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/httpx"
	"github.com/tribithub/portal/backend/internal/logger"
)

const (
	uploadField  = "wiki_image"
	uploadPrefix = "wiki-images/"
)

// ObjectStore stores a public object and returns the URL it is served at.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

type UploadHandler struct {
	objects  ObjectStore
	maxBytes int64
}

func NewUploadHandler(objects ObjectStore, maxBytes int64) *UploadHandler {
	return &UploadHandler{objects: objects, maxBytes: maxBytes}
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// objectKey returns wiki-images/<32 hex chars><ext of filename>.
func objectKey(filename string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return uploadPrefix + hex.EncodeToString(b) + filepath.Ext(filename), nil
}

// sniff reports the content type of f from its leading bytes and rewinds it.
func sniff(f io.ReadSeeker) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// Upload serves POST /api/admin/wiki/upload-image.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.RespondError(w, r, apperr.New(apperr.ErrValidation, "图片文件过大"), "图片上传失败")
			return
		}
		httpx.RespondError(w, r, apperr.New(apperr.ErrValidation, "未找到上传的图片文件"), "图片上传失败")
		return
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		httpx.RespondError(w, r, apperr.New(apperr.ErrValidation, "未找到上传的图片文件"), "图片上传失败")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if contentType, err = sniff(file); err != nil {
			httpx.RespondError(w, r, err, "图片上传失败")
			return
		}
	}

	key, err := objectKey(header.Filename)
	if err != nil {
		httpx.RespondError(w, r, err, "图片上传失败")
		return
	}

	url, err := h.objects.Put(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		httpx.RespondError(w, r, err, "图片上传失败")
		return
	}

	// Nobody is left to receive the URL, so the object would be orphaned.
	if err := r.Context().Err(); err != nil {
		if rerr := h.objects.Remove(context.WithoutCancel(r.Context()), key); rerr != nil {
			logger.Log.WithField("key", key).WithError(rerr).Error("Remove abandoned wiki image")
		}
		logger.Log.WithField("key", key).WithError(err).Warn("Wiki image upload abandoned")
		return
	}

	logger.Log.WithField("key", key).Info("Wiki image uploaded")
	httpx.WriteJSON(w, http.StatusOK, uploadResponse{ImageURL: url})
}
