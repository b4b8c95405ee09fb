package campaign

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/anyproto/ar-campaign-server/domain"
	"github.com/anyproto/ar-campaign-server/qr"
	"github.com/anyproto/ar-campaign-server/validator"
)

const (
	sessionHeader      = "X-Session-Id"
	multipartMemoryCap = 32 << 20
)

func (s *campaignService) RegisterHandlers(mux *http.ServeMux) {
	h := httpHandler{s: s, maxUploadSize: s.config.MaxUploadSize}
	mux.HandleFunc("POST /api/campaigns", h.Create)
	mux.HandleFunc("GET /api/campaigns", h.List)
	mux.HandleFunc("GET /api/campaigns/{id}", h.Get)
	mux.HandleFunc("GET /api/campaigns/{id}/qr.png", h.QrCode)
	mux.HandleFunc("DELETE /api/campaigns/{id}", h.Delete)
	mux.HandleFunc("GET /api/sessions/{sessionId}", h.State)
}

type httpHandler struct {
	s             Service
	maxUploadSize int64
}

type errResp struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h httpHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, errors.New("upload is too large"))
		} else {
			writeErr(w, http.StatusBadRequest, err)
		}
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	sessionId := r.Header.Get(sessionHeader)
	if sessionId == "" {
		sessionId = r.FormValue("sessionId")
	}
	if sessionId == "" {
		writeErr(w, http.StatusBadRequest, errors.New("session id is required"))
		return
	}

	marker, err := formCandidate(r, validator.FieldMarker)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if marker != nil {
		defer marker.Close()
	}
	video, err := formCandidate(r, validator.FieldVideo)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if video != nil {
		defer video.Close()
	}

	res, err := h.s.Submit(r.Context(), sessionId, Submission{
		Marker: marker.candidate(),
		Video:  video.candidate(),
	})
	if err != nil {
		writeSubmitErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h httpHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.s.State(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h httpHandler) List(w http.ResponseWriter, r *http.Request) {
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %q", raw))
			return
		}
	}
	list, err := h.s.List(r.Context(), limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Campaigns []domain.Campaign `json:"campaigns"`
	}{Campaigns: list})
}

func (h httpHandler) Get(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.s.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepoErr(w, err)
		return
	}
	qrCode, err := qr.Encode(campaign.HostedUrl)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Campaign: campaign, QrCode: qrCode})
}

func (h httpHandler) QrCode(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.s.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepoErr(w, err)
		return
	}
	data, err := qr.PNG(campaign.HostedUrl)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ar-campaign-%s.png"`, campaign.Id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h httpHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.s.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeRepoErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type formFile struct {
	multipart.File
	header *multipart.FileHeader
}

// formCandidate opens the uploaded file of the field; a missing file gives nil
func formCandidate(r *http.Request, field string) (*formFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return &formFile{File: file, header: header}, nil
}

func (f *formFile) candidate() *domain.Candidate {
	if f == nil {
		return nil
	}
	return &domain.Candidate{
		Name:        f.header.Filename,
		ContentType: f.header.Header.Get("Content-Type"),
		Size:        f.header.Size,
		Reader:      f.File,
	}
}

func writeSubmitErr(w http.ResponseWriter, err error) {
	var (
		vErr   *domain.ValidationError
		upErr  *domain.UploadError
		urlErr *domain.UrlResolutionError
		status = http.StatusInternalServerError
		resp   = errResp{Error: Summary(err)}
	)
	switch {
	case errors.As(err, &vErr):
		status = http.StatusUnprocessableEntity
		resp.Fields = vErr.Fields
	case errors.Is(err, ErrSubmissionInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPermissionDenied):
		// configuration problem, not the client's one
	case errors.As(err, &upErr), errors.As(err, &urlErr):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		log.Warn("submission failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func writeRepoErr(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeErr(w, http.StatusNotFound, err)
	} else {
		writeErr(w, http.StatusInternalServerError, err)
	}
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errResp{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, _ := json.Marshal(v)
	_, _ = w.Write(data)
}
