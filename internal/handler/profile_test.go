package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
)

func (s *testServer) upload(userID, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.uploadBody(userID, filename, contentType, data, false)
}

// uploadBody posts a multipart avatar form; streamed hides the content length
// the way a chunked request would.
func (s *testServer) uploadBody(userID, filename, contentType string, data []byte, streamed bool) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(s.t, err)
	_, err = part.Write(data)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	var body io.Reader = &buf
	if streamed {
		body = io.MultiReader(&buf)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	token, err := s.verifier.IssueToken(userID, time.Hour)
	require.NoError(s.t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func TestProfileHandler_DisplayName(t *testing.T) {
	s := setupServer(t, repo.NewMemoryTaskRepo())

	p := decode[model.Profile](t, s.do(http.MethodGet, "/api/profile", "u1", nil))
	assert.Equal(t, "u1", p.UserID)
	assert.Nil(t, p.DisplayName)

	w := s.do(http.MethodPut, "/api/profile/display-name", "u1", map[string]string{"display_name": " Ann "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p = decode[model.Profile](t, w)
	require.NotNil(t, p.DisplayName)
	assert.Equal(t, "Ann", *p.DisplayName)

	w = s.do(http.MethodPut, "/api/profile/display-name", "u1", map[string]string{"display_name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileHandler_Avatar(t *testing.T) {
	s := setupServer(t, repo.NewMemoryTaskRepo())
	png := []byte("\x89PNG\r\n\x1a\nfake")

	w := s.upload("u1", "me.png", "image/png", png)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[model.Profile](t, w)
	require.NotNil(t, p.AvatarURL)
	assert.Contains(t, *p.AvatarURL, "http://localhost/avatars/u1/avatar.png?t=")

	w = s.do(http.MethodGet, "/avatars/u1/avatar.png", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, png, w.Body.Bytes())

	w = s.do(http.MethodDelete, "/api/profile/avatar", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[model.Profile](t, w).AvatarURL)
}

func TestProfileHandler_AvatarRejected(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(document.domain)</script></svg>`)
	huge := make([]byte, 2<<20)

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		streamed    bool
		wantCode    int
	}{
		{"not an image", "notes.txt", "text/plain", []byte("hello"), false, http.StatusBadRequest},
		{"svg declared as svg", "x.svg", "image/svg+xml", svg, false, http.StatusBadRequest},
		{"svg declared as png", "x.png", "image/png", svg, false, http.StatusBadRequest},
		{"html declared as png", "x.html", "image/png", []byte("<html><script>alert(1)</script></html>"), false, http.StatusBadRequest},
		{"too large", "big.png", "image/png", make([]byte, 2048), false, http.StatusRequestEntityTooLarge},
		{"far over the limit", "huge.png", "image/png", huge, false, http.StatusRequestEntityTooLarge},
		{"far over the limit without length", "huge.png", "image/png", huge, true, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupServer(t, repo.NewMemoryTaskRepo())

			w := s.uploadBody("u1", tt.filename, tt.contentType, tt.data, tt.streamed)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			p := decode[model.Profile](t, s.do(http.MethodGet, "/api/profile", "u1", nil))
			assert.Nil(t, p.AvatarURL)
		})
	}
}

func TestProfileHandler_AvatarIgnoresDeclaredName(t *testing.T) {
	s := setupServer(t, repo.NewMemoryTaskRepo())
	png := []byte("\x89PNG\r\n\x1a\nfake")

	w := s.upload("u1", "page.html", "text/html", png)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[model.Profile](t, w)
	require.NotNil(t, p.AvatarURL)
	assert.Contains(t, *p.AvatarURL, "/avatars/u1/avatar.png?t=")

	w = s.do(http.MethodGet, "/avatars/u1/avatar.png", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestProfileHandler_MissingAvatar(t *testing.T) {
	s := setupServer(t, repo.NewMemoryTaskRepo())

	w := s.do(http.MethodGet, "/avatars/u1/avatar.png", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
