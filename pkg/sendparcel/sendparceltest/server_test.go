package sendparceltest

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexed(t *testing.T) {
	f := url.Values{
		"keys[10]": {"k"},
		"keys[2]":  {"c"},
		"keys[0]":  {"a"},
		"keys[x]":  {"bad"},
		"other":    {"z"},
	}
	assert.Equal(t, []string{"a", "c", "k"}, indexed(f, "keys"))
	assert.Empty(t, indexed(f, "missing"))
}

func TestIndexedMaps(t *testing.T) {
	f := url.Values{
		"items[1][sender_postcode]": {"62000"},
		"items[0][sender_postcode]": {"55100"},
		"items[0][weight]":          {"0.5"},
	}
	got := indexedMaps(f, "items")
	require.Len(t, got, 2)
	assert.Equal(t, map[string]string{"sender_postcode": "55100", "weight": "0.5"}, got[0])
	assert.Equal(t, "62000", got[1]["sender_postcode"])
}

func TestServer_RewritesToFake(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	resp, err := srv.HTTPClient().Post("https://sendparcel.poslaju.com.my/apiv1/me",
		"application/x-www-form-urlencoded", strings.NewReader("api_key=k"))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":true`)

	last, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "https://sendparcel.poslaju.com.my/apiv1/me", last.URL)
	assert.Equal(t, "me", last.Path)
	assert.Equal(t, "k", last.Form.Get("api_key"))
}

func TestServer_On(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	srv.On("me", func(req Request) Response {
		return Response{StatusCode: http.StatusTeapot, Body: "short and stout"}
	})

	resp, err := srv.HTTPClient().Post(srv.URL+"/apiv1/me", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", string(body))
}

func TestFailingHTTPClient(t *testing.T) {
	boom := errors.New("boom")
	_, err := FailingHTTPClient(boom).Get("http://example.invalid/")
	assert.ErrorIs(t, err, boom)
}
