package sse_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/mathquest/api/sse"
	"github.com/kasuganosora/mathquest/notify"
	"github.com/kasuganosora/mathquest/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProfiles map[string]bool

func (f fakeProfiles) Exists(_ context.Context, id string) (bool, error) {
	return f[id], nil
}

func newServer(t *testing.T, keepalive time.Duration) (*httptest.Server, *notify.Publisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	_, ps := testutil.SetupTestCache(t)
	pub := notify.NewPublisher(ps, zap.NewNop())
	h := sse.NewHandler(fakeProfiles{"p1": true}, pub, keepalive, zap.NewNop())

	r := gin.New()
	r.GET("/sse/:id", h.ServeSSE)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, pub
}

// readEvent returns the next "event:" name and its data line.
func readEvent(t *testing.T, rd *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := rd.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && event != "":
			return event, data
		}
	}
}

func TestServeSSE_UnknownProfile(t *testing.T) {
	srv, _ := newServer(t, time.Minute)
	resp, err := http.Get(srv.URL + "/sse/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeSSE_StreamsNotices(t *testing.T) {
	srv, pub := newServer(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse/p1", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	event, _ := readEvent(t, rd)
	require.Equal(t, "connected", event)

	pub.Send(context.Background(), "p2", notify.Notice{Kind: notify.KindMastery, Message: "not yours"})
	pub.Send(context.Background(), "p1", notify.Notice{Kind: notify.KindDailyClear, Message: "Daily challenge cleared! +75 pts", Points: 75})

	event, data := readEvent(t, rd)
	assert.Equal(t, string(notify.KindDailyClear), event)
	assert.Contains(t, data, `"points":75`)
	assert.NotContains(t, data, "not yours")
}

func TestServeSSE_Keepalive(t *testing.T) {
	srv, _ := newServer(t, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse/p1", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	rd := bufio.NewReader(resp.Body)
	readEvent(t, rd)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err := rd.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, ": keepalive") {
			return
		}
	}
	t.Fatal("no keepalive received")
}
