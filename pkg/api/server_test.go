package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/chartconv/pkg/converter"
	"github.com/james-see/chartconv/pkg/converter/formats"
)

const testOsu = `osu file format v14

[General]
AudioFilename: audio.mp3
Mode: 3

[Metadata]
Title:Test Song
Artist:Test Artist
Creator:Mapper
Version:Hard

[Difficulty]
CircleSize:4

[TimingPoints]
0,500,4,1,0,100,1,0

[HitObjects]
64,192,0,1,0,0:0:0:0:
192,192,500,1,0,0:0:0:0:
320,192,1000,128,0,1500:0:0:0:0:
`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer() *Server {
	return NewServer(formats.NewConverter(nil))
}

func uploadRequest(t *testing.T, url, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer().Router().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestListFormats(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Formats []string `json:"formats"`
		Pairs   []string `json:"pairs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"osu", "sm", "qua", "midi"}, body.Formats)
	assert.Contains(t, body.Pairs, "osu2sm")
	assert.Contains(t, body.Pairs, "qua2midi")
	assert.NotContains(t, body.Pairs, "midi2osu")
}

func TestConvertOsuToSM(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Router().ServeHTTP(rec, uploadRequest(t, "/api/v1/convert/osu2sm", "song.osu", testOsu))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "song.sm")
	assert.Contains(t, rec.Body.String(), "#TITLE:Test Song;")
	assert.Contains(t, rec.Body.String(), "#BPMS:0=120;")
}

func TestConvertUnknownPair(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Router().ServeHTTP(rec, uploadRequest(t, "/api/v1/convert/osu2wav", "song.osu", testOsu))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertWithoutFile(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert/osu2sm", strings.NewReader(""))
	newTestServer().Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertMalformedChart(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Router().ServeHTTP(rec, uploadRequest(t, "/api/v1/convert/osu2qua", "song.osu", "osu file format v14\n[General]\nMode: 0\n"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "mode is invalid")
}

func TestInspect(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Router().ServeHTTP(rec, uploadRequest(t, "/api/v1/inspect", "song.osu", testOsu))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary converter.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, converter.FormatOsu, summary.Format)
	assert.Equal(t, "Test Song", summary.Title)
	assert.Equal(t, 4, summary.KeyCount)
	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, float32(120), summary.MaxBPM)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/convert/osu2sm", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
