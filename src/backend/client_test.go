package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"batch_txt_bot/src/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	var gotHeader http.Header
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		assert.Equal(t, "/v1/items", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":[{"id":1}]}`))
	}))
	defer srv.Close()

	m := metrics.New()
	c := NewClient("test", srv.URL+"/", NewHTTPClient(5*time.Second), http.Header{
		"Client-Id":     {"fixed"},
		"Authorization": {"Bearer none"},
	}, m)

	resp, err := c.Do(context.Background(), Request{
		Op:     "list",
		Method: http.MethodPost,
		Path:   "/v1/items",
		Query:  url.Values{"page": {"2"}},
		Header: http.Header{"Authorization": {"Bearer tok"}},
		Body:   map[string]string{"a": "b"},
	})
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct {
		Data []struct {
			ID FlexString `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, resp.Decode(&out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "1", out.Data[0].ID.String())

	assert.Equal(t, "fixed", gotHeader.Get("Client-Id"))
	assert.Equal(t, []string{"Bearer tok"}, gotHeader.Values("Authorization"))
	assert.JSONEq(t, `{"a":"b"}`, gotBody)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("test", "list", "200")))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient("test", srv.URL, nil, nil, nil)
	_, err := c.Do(context.Background(), Request{Op: "list", Path: "/"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	var te *TransportError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, "list", te.Op)
}

func TestStatusError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, &StatusError{StatusCode: http.StatusUnauthorized}, ErrAuth)
	assert.NotErrorIs(t, &StatusError{StatusCode: http.StatusUnauthorized}, ErrFetch)
	assert.ErrorIs(t, &StatusError{StatusCode: http.StatusInternalServerError}, ErrFetch)
	assert.ErrorIs(t, &StatusError{StatusCode: http.StatusForbidden}, ErrFetch)
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, (&Response{Body: []byte(`{"a":"x1","b":1500,"c":null}`)}).Decode(&v))
	assert.Equal(t, FlexString("x1"), v.A)
	assert.Equal(t, FlexString("1500"), v.B)
	assert.Equal(t, FlexString(""), v.C)

	assert.Error(t, (&Response{Body: []byte(`{"a":true}`)}).Decode(&v))
}
