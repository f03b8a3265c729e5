package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		if r.URL.Query().Get("query") == "nowhere" {
			fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
			return
		}
		var results []string
		for i := 0; i < 7; i++ {
			results = append(results, fmt.Sprintf(`{"name":"Place %d","formatted_address":"%d Market St"}`, i, i))
		}
		fmt.Fprintf(w, `{"status":"OK","results":[%s]}`, strings.Join(results, ","))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret", 0, WithHTTPClient(srv.Client()))
	places, err := client.Search(context.Background(), "market")
	require.NoError(t, err)
	require.Len(t, places, maxResults)
	assert.Equal(t, Place{Name: "Place 0", FormattedAddress: "0 Market St"}, places[0])

	places, err = client.Search(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestSearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "denied" {
			fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"bad key"}`)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", 0)
	_, err := client.Search(context.Background(), "denied")
	assert.ErrorContains(t, err, "REQUEST_DENIED")

	_, err = client.Search(context.Background(), "anything")
	assert.ErrorContains(t, err, "status 500")

	_, err = client.Search(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrEmptyQuery))

	_, err = NewClient(srv.URL, "", 0).Search(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrDisabled))

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}
