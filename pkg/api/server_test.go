package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shouc/distfuzz/pkg/cluster"
	"github.com/shouc/distfuzz/pkg/transport"
	"github.com/stretchr/testify/require"
)

func TestServerHealthIsPublic(t *testing.T) {
	transports := transport.NewLocalCluster(2)
	coord := cluster.NewCoordinator(transports[0], nil)
	srv := NewServer(coord, 2, nil, nil, nil)

	handler, err := srv.Handler()
	require.NoError(t, err)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
}

func TestServerStatusUnauthenticatedWithoutValidator(t *testing.T) {
	transports := transport.NewLocalCluster(2)
	coord := cluster.NewCoordinator(transports[0], nil)
	srv := NewServer(coord, 2, nil, nil, nil)

	handler, err := srv.Handler()
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "no validator configured means /status is open")
}

func TestServerShutdownOnContextCancel(t *testing.T) {
	transports := transport.NewLocalCluster(2)
	coord := cluster.NewCoordinator(transports[0], nil)
	srv := NewServer(coord, 2, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not shut down in time")
	}
}
