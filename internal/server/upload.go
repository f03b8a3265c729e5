package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/vanshika/ecocycle/backend/internal/verification"
)

type upload struct {
	Image    verification.Image
	Category string
}

// imageRequest is the JSON upload form. Image is raw base64 or a data URL.
type imageRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
	Category string `json:"category"`
}

// readUpload accepts either multipart/form-data with an "image" file field
// or a JSON imageRequest. It writes the error response itself.
func (h *APIHandlers) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	if r.ContentLength > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
		return upload{}, false
	}
	body := &cappedBody{ReadCloser: http.MaxBytesReader(w, r.Body, h.maxUploadBytes)}
	r.Body = body

	var (
		up  upload
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		up, err = readMultipart(r, h.maxUploadBytes)
	} else {
		up, err = readJSONImage(r)
	}

	var tooLarge *http.MaxBytesError
	switch {
	case body.exceeded || errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
		return upload{}, false
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return upload{}, false
	}
	if up.Image.MIMEType == "" || up.Image.MIMEType == "application/octet-stream" {
		up.Image.MIMEType = http.DetectContentType(up.Image.Data)
	}
	if !strings.HasPrefix(up.Image.MIMEType, "image/") {
		writeError(w, http.StatusBadRequest, "upload is not an image")
		return upload{}, false
	}
	return up, true
}

// cappedBody remembers whether the size cap was hit. The multipart reader
// does not always return the underlying *http.MaxBytesError.
type cappedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}
	return n, err
}

func readMultipart(r *http.Request, maxBytes int64) (upload, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload{}, err
		}
		return upload{}, errors.New("invalid multipart form")
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return upload{}, errors.New("image file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return upload{}, err
	}
	if len(data) == 0 {
		return upload{}, errors.New("image file is empty")
	}
	return upload{
		Image:    verification.Image{Data: data, MIMEType: header.Header.Get("Content-Type")},
		Category: r.FormValue("category"),
	}, nil
}

func readJSONImage(r *http.Request) (upload, error) {
	var payload imageRequest
	if err := decodeJSON(r, &payload); err != nil {
		return upload{}, err
	}
	if payload.Image == "" {
		return upload{}, errors.New("image is required")
	}

	encoded, mimeType := payload.Image, payload.MIMEType
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return upload{}, errors.New("image data URL must be base64 encoded")
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(meta, ";base64")
		}
		encoded = body
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return upload{}, errors.New("image is not valid base64")
	}
	return upload{
		Image:    verification.Image{Data: data, MIMEType: mimeType},
		Category: payload.Category,
	}, nil
}
