package realtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/crowdsafe/internal/room"
	"github.com/iliyamo/crowdsafe/internal/session"
	"github.com/iliyamo/crowdsafe/internal/utils"
)

type fakeSession struct {
	req *http.Request
	in  chan string
	out chan string

	mu     sync.Mutex
	status uint32
	reason string
}

func newFakeSession(target string) *fakeSession {
	return &fakeSession{
		req: httptest.NewRequest(http.MethodGet, target, nil),
		in:  make(chan string),
		out: make(chan string, 16),
	}
}

func (s *fakeSession) Recv() (string, error) {
	m, ok := <-s.in
	if !ok {
		return "", io.EOF
	}
	return m, nil
}

func (s *fakeSession) Send(m string) error {
	s.out <- m
	return nil
}

func (s *fakeSession) Close(status uint32, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.reason = status, reason
	return nil
}

func (s *fakeSession) Request() *http.Request { return s.req }

type frame struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func (s *fakeSession) next(t *testing.T) frame {
	t.Helper()
	select {
	case m := <-s.out:
		var f frame
		require.NoError(t, json.Unmarshal([]byte(m), &f), m)
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame sent")
		return frame{}
	}
}

func newTestServer(t *testing.T, opts Options) (*Server, *room.Broadcaster, *session.Coordinator) {
	t.Helper()
	rooms := room.NewBroadcaster(8)
	coord := session.NewCoordinator(context.Background(), rooms, session.RunnerFunc(func(ctx context.Context, _ uint64) {
		<-ctx.Done()
	}))
	t.Cleanup(coord.Shutdown)
	return NewServer(rooms, coord, opts), rooms, coord
}

func serve(srv *Server, sess *fakeSession) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(sess)
	}()
	return done
}

func TestServeJoinPushLeave(t *testing.T) {
	srv, rooms, coord := newTestServer(t, Options{})
	sess := newFakeSession("/realtime/websocket")
	done := serve(srv, sess)

	sess.in <- `{"action":"join_event","event_id":1}`
	f := sess.next(t)
	assert.Equal(t, room.ActionJoin, f.Type)
	assert.Equal(t, true, f.Data["ok"])
	assert.Equal(t, float64(1), f.Data["event_id"])
	assert.True(t, coord.Active(1))

	require.Equal(t, 1, rooms.Publish(room.CapacityUpdate{EventID: 1, ZoneID: 3, Current: 4, Max: 10, Percentage: 40}))
	f = sess.next(t)
	assert.Equal(t, string(room.TypeCapacityUpdate), f.Type)
	assert.Equal(t, float64(3), f.Data["zone_id"])

	sess.in <- `{"action":"leave_event","event_id":"1"}`
	f = sess.next(t)
	assert.Equal(t, room.ActionLeave, f.Type)
	assert.False(t, coord.Active(1))

	close(sess.in)
	<-done
}

func TestServeRejectsBadFrames(t *testing.T) {
	srv, _, _ := newTestServer(t, Options{})
	sess := newFakeSession("/realtime/websocket")
	done := serve(srv, sess)

	sess.in <- `not json`
	f := sess.next(t)
	assert.Equal(t, "error", f.Type)
	assert.Contains(t, f.Data["error"], "invalid control message")

	sess.in <- `{"action":"join_event","event_id":0}`
	f = sess.next(t)
	assert.Equal(t, "error", f.Type)

	close(sess.in)
	<-done
}

func TestDisconnectStopsFeed(t *testing.T) {
	srv, rooms, coord := newTestServer(t, Options{})
	sess := newFakeSession("/realtime/websocket")
	done := serve(srv, sess)

	sess.in <- `{"action":"join_event","event_id":5}`
	sess.next(t)
	require.True(t, coord.Active(5))

	close(sess.in)
	<-done
	assert.False(t, coord.Active(5))
	assert.Zero(t, rooms.Members(5))
}

func TestServeRequiresToken(t *testing.T) {
	srv, _, _ := newTestServer(t, Options{RequireToken: true, JWTSecret: "s3cret"})

	sess := newFakeSession("/realtime/websocket")
	<-serve(srv, sess)
	sess.mu.Lock()
	assert.Equal(t, uint32(4001), sess.status)
	sess.mu.Unlock()

	tok, err := utils.NewAccessToken("s3cret", 7, "SCANNER", time.Minute)
	require.NoError(t, err)
	sess = newFakeSession("/realtime/websocket?token=" + tok.Token)
	done := serve(srv, sess)
	sess.in <- `{"action":"join_event","event_id":2}`
	assert.Equal(t, room.ActionJoin, sess.next(t).Type)
	close(sess.in)
	<-done
	assert.Zero(t, sess.status)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/realtime?token=abc", nil)
	assert.Equal(t, "abc", tokenFromRequest(r))
	r.Header.Set("Authorization", "Bearer xyz")
	assert.Equal(t, "xyz", tokenFromRequest(r))
	assert.Empty(t, tokenFromRequest(nil))
}
