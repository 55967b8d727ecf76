// Package realtime exposes event rooms over SockJS. Clients send
// join_event / leave_event frames and receive the room's push messages as
// {"type": ..., "data": ...} JSON frames.
package realtime

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/iliyamo/crowdsafe/internal/log"
	"github.com/iliyamo/crowdsafe/internal/middleware"
	"github.com/iliyamo/crowdsafe/internal/room"
	"github.com/rs/zerolog"
)

// Prefix is the SockJS mount point.
const Prefix = "/realtime"

// Coordinator is the room lifecycle the transport drives.
type Coordinator interface {
	Join(c *room.Client, eventID uint64) error
	Leave(c *room.Client, eventID uint64) error
	Disconnect(c *room.Client)
}

// Registry creates and tears down room clients.
type Registry interface {
	Register(id string) *room.Client
	Unregister(c *room.Client) []uint64
}

// Options configure the transport. When RequireToken is set, connections
// must carry a valid access token as ?token= or a Bearer header.
type Options struct {
	RequireToken bool
	JWTSecret    string
}

// Server bridges SockJS sessions to rooms.
type Server struct {
	rooms Registry
	coord Coordinator
	opts  Options
	log   zerolog.Logger
}

// NewServer returns a transport for the given rooms and coordinator.
func NewServer(rooms Registry, coord Coordinator, opts Options) *Server {
	return &Server{rooms: rooms, coord: coord, opts: opts, log: log.WithComponent("realtime")}
}

// Handler returns the SockJS HTTP handler mounted at Prefix.
func (s *Server) Handler() http.Handler {
	return sockjs.NewHandler(Prefix, sockjs.DefaultOptions, s.serve)
}

// Session is the part of a SockJS session the transport uses.
type Session interface {
	Recv() (string, error)
	Send(string) error
	Close(status uint32, reason string) error
	Request() *http.Request
}

func (s *Server) serve(sess sockjs.Session) { s.Serve(sess) }

// Serve runs one connection until the peer goes away.
func (s *Server) Serve(sess Session) {
	if s.opts.RequireToken {
		if _, err := middleware.ParseToken(s.opts.JWTSecret, tokenFromRequest(sess.Request())); err != nil {
			_ = sess.Close(4001, "invalid token")
			return
		}
	}

	client := s.rooms.Register(uuid.NewString())
	l := s.log.With().Str("client_id", client.ID).Logger()
	l.Debug().Msg("realtime client connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range client.Messages() {
			data, err := room.Encode(msg)
			if err != nil {
				l.Error().Err(err).Str("type", string(msg.Type())).Msg("encode push message failed")
				continue
			}
			if err := sess.Send(string(data)); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.coord.Disconnect(client)
		s.rooms.Unregister(client)
		<-writerDone
		l.Debug().Msg("realtime client disconnected")
	}()

	for {
		frame, err := sess.Recv()
		if err != nil {
			return
		}
		s.handleFrame(sess, client, frame)
	}
}

func (s *Server) handleFrame(sess Session, client *room.Client, frame string) {
	ctl, err := room.ParseControl([]byte(frame))
	if err != nil {
		s.reply(sess, "error", map[string]any{"error": err.Error()})
		return
	}
	switch ctl.Action {
	case room.ActionJoin:
		err = s.coord.Join(client, ctl.EventID)
	case room.ActionLeave:
		err = s.coord.Leave(client, ctl.EventID)
	}
	if err != nil {
		s.reply(sess, "error", map[string]any{"error": err.Error(), "event_id": ctl.EventID})
		return
	}
	s.reply(sess, ctl.Action, map[string]any{"ok": true, "event_id": ctl.EventID})
}

func (s *Server) reply(sess Session, typ string, data map[string]any) {
	b, err := json.Marshal(map[string]any{"type": typ, "data": data})
	if err != nil {
		return
	}
	if err := sess.Send(string(b)); err != nil {
		s.log.Debug().Err(err).Msg("reply failed")
	}
}

func tokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
