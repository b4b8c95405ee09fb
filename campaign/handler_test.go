package campaign

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/ar-campaign-server/validator"
)

type formPart struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, sessionId string, parts ...formPart) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.name))
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if sessionId != "" {
		req.Header.Set(sessionHeader, sessionId)
	}
	return req
}

func markerPart() formPart {
	return formPart{field: validator.FieldMarker, name: "poster.jpg", contentType: "image/jpeg", data: []byte("jpeg data")}
}

func videoPart() formPart {
	return formPart{field: validator.FieldVideo, name: "clip.mp4", contentType: "video/mp4", data: []byte("mp4 data")}
}

func serve(fx *fixture, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	fx.RegisterHandlers(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		fx := newFixture(t)
		rec := serve(fx, multipartRequest(t, "s1", markerPart(), videoPart()))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.NotEmpty(t, res.Campaign.Id)
		assert.Regexp(t, `/marker_\d+\.jpg$`, res.Campaign.MarkerKey)
		assert.Equal(t, res.Campaign.HostedUrl, decodeQr(t, res.QrCode))

		stateRec := serve(fx, httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil))
		require.Equal(t, http.StatusOK, stateRec.Code)
		var state SubmissionState
		require.NoError(t, json.Unmarshal(stateRec.Body.Bytes(), &state))
		assert.Equal(t, StageComplete, state.Stage)
		assert.Equal(t, res.Campaign.Id, state.CampaignId)
	})
	t.Run("session from form field", func(t *testing.T) {
		fx := newFixture(t)
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		require.NoError(t, mw.WriteField("sessionId", "form-session"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/campaigns", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		rec := serve(fx, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		state, err := fx.State(context.Background(), "form-session")
		require.NoError(t, err)
		assert.Equal(t, StageFailed, state.Stage)
	})
	t.Run("validation", func(t *testing.T) {
		fx := newFixture(t)
		video := videoPart()
		video.contentType = "video/webm"
		rec := serve(fx, multipartRequest(t, "s1", video))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp errResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, MsgValidation, resp.Error)
		assert.Equal(t, map[string]string{
			validator.FieldMarker: "Please select a marker image",
			validator.FieldVideo:  "Video must be in MP4 format",
		}, resp.Fields)
		assert.Empty(t, fx.store.PutCalls())
	})
	t.Run("no session", func(t *testing.T) {
		fx := newFixture(t)
		rec := serve(fx, multipartRequest(t, "", markerPart(), videoPart()))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, fx.store.PutCalls())
	})
	t.Run("upload failed", func(t *testing.T) {
		fx := newFixture(t)
		fx.store.PutHook = func(ctx context.Context, key string) error {
			return errors.New("connection reset")
		}
		rec := serve(fx, multipartRequest(t, "s1", markerPart(), videoPart()))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var resp errResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, MsgUpload, resp.Error)
	})
	t.Run("database failed", func(t *testing.T) {
		fx := newFixture(t)
		fx.repo.createErr = errors.New("server selection timeout")
		rec := serve(fx, multipartRequest(t, "s1", markerPart(), videoPart()))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp errResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, MsgDatabase, resp.Error)
	})
}

func TestHandler_Campaign(t *testing.T) {
	fx := newFixture(t)
	res, err := fx.Submit(ctx, "s1", validSubmission())
	require.NoError(t, err)
	id := res.Campaign.Id

	t.Run("get", func(t *testing.T) {
		rec := serve(fx, httptest.NewRequest(http.MethodGet, "/api/campaigns/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var got Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, res.Campaign.HostedUrl, got.Campaign.HostedUrl)
		assert.Equal(t, res.Campaign.HostedUrl, decodeQr(t, got.QrCode))
	})
	t.Run("list", func(t *testing.T) {
		rec := serve(fx, httptest.NewRequest(http.MethodGet, "/api/campaigns?limit=10", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), id)

		rec = serve(fx, httptest.NewRequest(http.MethodGet, "/api/campaigns?limit=ten", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("qr download", func(t *testing.T) {
		rec := serve(fx, httptest.NewRequest(http.MethodGet, "/api/campaigns/"+id+"/qr.png", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="ar-campaign-`+id+`.png"`, rec.Header().Get("Content-Disposition"))
		_, err := png.Decode(rec.Body)
		require.NoError(t, err)
	})
	t.Run("not found", func(t *testing.T) {
		rec := serve(fx, httptest.NewRequest(http.MethodGet, "/api/campaigns/unknown", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("delete", func(t *testing.T) {
		rec := serve(fx, httptest.NewRequest(http.MethodDelete, "/api/campaigns/"+id, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = serve(fx, httptest.NewRequest(http.MethodDelete, "/api/campaigns/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_State_idle(t *testing.T) {
	fx := newFixture(t)
	rec := serve(fx, httptest.NewRequest(http.MethodGet, "/api/sessions/nobody", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var state SubmissionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, StageIdle, state.Stage)
}
