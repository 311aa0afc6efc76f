package exampur

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"batch_txt_bot/src/backend"
	"batch_txt_bot/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(model.ExampurConfig{BaseURL: srv.URL, MaxPages: 10}, backend.NewHTTPClient(5*time.Second), nil)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "no_token", r.Header.Get("Appauthtoken"))
		assert.Equal(t, "application/json; charset=UTF-8", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"phone":"9999","password":"secret"}`, string(body))
		fmt.Fprint(w, `{"token":"jwt-1"}`)
	})

	token, err := c.Login(context.Background(), "9999", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", token)
}

func TestLogin_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Login(context.Background(), "9999", "wrong")
	assert.ErrorIs(t, err, backend.ErrAuth)
}

func TestLogin_MissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	_, err := c.Login(context.Background(), "9999", "secret")
	assert.ErrorIs(t, err, backend.ErrAuth)
}

func TestListCourses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("Appauthtoken"))
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"data":[{"id":101,"title":"SSC CGL","price":0},{"id":"102","title":"Banking","price":799}]}`)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	})

	courses, err := c.ListCourses(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []model.Course{
		{ID: "101", Title: "SSC CGL", Price: "Free"},
		{ID: "102", Title: "Banking", Price: "799"},
	}, courses)
}

func TestListCourses_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	courses, err := c.ListCourses(context.Background(), "bad")
	assert.ErrorIs(t, err, backend.ErrAuth)
	assert.Nil(t, courses)
}

func TestListLessons(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login/user/courses/101/v2-lessons", r.URL.Path)
		fmt.Fprint(w, `[{"id":1,"title":"Intro"},{"id":2,"title":"Algebra"}]`)
	})

	lessons, err := c.ListLessons(context.Background(), "101", "tok")
	require.NoError(t, err)
	assert.Equal(t, []model.Lesson{{ID: "1", Title: "Intro"}, {ID: "2", Title: "Algebra"}}, lessons)
}

func TestListLessons_Failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.ListLessons(context.Background(), "101", "tok")
	assert.ErrorIs(t, err, backend.ErrFetch)
}

func TestListLessonVideos_BestEffort(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login/api/lessons/1":
			fmt.Fprint(w, `{"videos":[{"name":"Part: One","video_url":"https://v/1"},{"video_url":"https://v/2"},{"name":"NoURL"}]}`)
		case "/auth/login/api/lessons/2":
			fmt.Fprint(w, `not json`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	videos := c.ListLessonVideos(context.Background(), "1", "tok")
	assert.Equal(t, []model.Video{
		{Name: "Part: One", URL: "https://v/1"},
		{Name: "Untitled", URL: "https://v/2"},
		{Name: "NoURL", URL: ""},
	}, videos)

	assert.Empty(t, c.ListLessonVideos(context.Background(), "2", "tok"))
	assert.Empty(t, c.ListLessonVideos(context.Background(), "3", "tok"))
}
