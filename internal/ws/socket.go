package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/roomcast/roomcast/internal/session"
)

// ConnCtx tags a live connection with the session it is attached to, the
// role it declared, and (for players) its player id. The role only shapes
// the view a connection receives; host authority comes from the token
// carried on each host command, never from the declared role.
type ConnCtx struct {
	Code     string
	Role     session.Role
	PlayerID string
}

type Server struct {
	store *session.Store

	mu      sync.Mutex
	members map[string]map[string]socketio.Conn // sessionCode -> socketID -> Conn
}

func New(store *session.Store) *Server {
	srv := &Server{store: store, members: make(map[string]map[string]socketio.Conn)}
	// server-originated mutations (timer auto-advance, idle reap) re-use
	// the same fan-out as client commands
	store.OnChange = srv.emitSnapshots
	store.OnDestroyed = srv.emitDestroyed
	return srv
}

type promptPayload struct {
	Prompt  string               `json:"prompt"`
	Options []session.Option     `json:"options"`
	Correct string               `json:"correctOption"`
	TimeSec int                  `json:"timeLimitSec"`
	Ballot  []session.VoteOption `json:"ballot"`
	Items   []string             `json:"items"`
}

// Mount attaches the Socket.IO server with all command handlers to the
// given gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "create-session", func(s socketio.Conn, payload struct {
		ActivityKind session.ActivityKind  `json:"activityKind"`
		Config       session.SessionConfig `json:"config"`
	}) map[string]any {
		sess, err := srv.store.Create(payload.ActivityKind, payload.Config)
		if err != nil {
			return srv.reject(s, err)
		}
		s.SetContext(&ConnCtx{Code: sess.Code, Role: session.RoleHost})
		s.Join(sess.Code)
		srv.addMember(sess.Code, s)
		log.Info().Str("sid", s.ID()).Str("code", sess.Code).Str("kind", string(sess.Kind)).Msg("create-session")
		s.Emit("snapshot", sess.BuildSnapshot(session.RoleHost, ""))
		return map[string]any{"sessionId": sess.Code, "hostToken": sess.HostToken}
	})

	io.OnEvent("/", "join-session", func(s socketio.Conn, payload struct {
		SessionID   string       `json:"sessionId"`
		Role        session.Role `json:"role"`
		PlayerID    string       `json:"playerId"`
		DisplayName string       `json:"displayName"`
	}) map[string]any {
		sess, err := srv.store.Get(payload.SessionID)
		if err != nil {
			return srv.reject(s, err)
		}
		role := payload.Role
		switch role {
		case session.RoleHost, session.RolePlayer, session.RoleDisplay:
		default:
			role = session.RoleDisplay
		}
		playerID := sess.Join(role, payload.PlayerID, payload.DisplayName)
		s.SetContext(&ConnCtx{Code: payload.SessionID, Role: role, PlayerID: playerID})
		s.Join(payload.SessionID)
		srv.addMember(payload.SessionID, s)
		log.Info().Str("sid", s.ID()).Str("code", payload.SessionID).Str("role", string(role)).Str("playerId", playerID).Msg("join-session")
		srv.emitSnapshots(payload.SessionID)
		return map[string]any{"playerId": playerID}
	})

	io.OnEvent("/", "submit-response", func(s socketio.Conn, payload struct {
		SessionID  string           `json:"sessionId"`
		RoundIndex int              `json:"roundIndex"`
		PlayerID   string           `json:"playerId"`
		Payload    session.Response `json:"payload"`
	}) map[string]any {
		code := sessionCode(s, payload.SessionID)
		sess, err := srv.store.Get(code)
		if err != nil {
			return srv.reject(s, err)
		}
		playerID := connCtx(s).PlayerID
		if playerID == "" {
			playerID = payload.PlayerID
		}
		if err := sess.Submit(payload.RoundIndex, playerID, payload.Payload); err != nil {
			return srv.reject(s, err)
		}
		log.Info().Str("code", code).Str("playerId", playerID).Int("round", payload.RoundIndex).Msg("submit-response")
		srv.emitSnapshots(code)
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "host-set-state", func(s socketio.Conn, payload struct {
		SessionID string             `json:"sessionId"`
		Token     string             `json:"token"`
		NextState session.RoundState `json:"nextState"`
	}) map[string]any {
		return srv.hostCommand(s, sessionCode(s, payload.SessionID), "host-set-state", func(sess *session.Session) error {
			return sess.SetState(payload.Token, payload.NextState)
		})
	})

	io.OnEvent("/", "host-next", func(s socketio.Conn, payload struct {
		SessionID string `json:"sessionId"`
		Token     string `json:"token"`
	}) map[string]any {
		return srv.hostCommand(s, sessionCode(s, payload.SessionID), "host-next", func(sess *session.Session) error {
			return sess.Next(payload.Token)
		})
	})

	io.OnEvent("/", "host-set-prompt", func(s socketio.Conn, payload struct {
		SessionID string        `json:"sessionId"`
		Token     string        `json:"token"`
		Prompt    promptPayload `json:"prompt"`
	}) map[string]any {
		return srv.hostCommand(s, sessionCode(s, payload.SessionID), "host-set-prompt", func(sess *session.Session) error {
			return setPrompt(sess, payload.Token, payload.Prompt)
		})
	})

	io.OnEvent("/", "host-set-checkpoint", func(s socketio.Conn, payload struct {
		SessionID    string             `json:"sessionId"`
		Token        string             `json:"token"`
		CheckpointID session.Checkpoint `json:"checkpointId"`
	}) map[string]any {
		return srv.hostCommand(s, sessionCode(s, payload.SessionID), "host-set-checkpoint", func(sess *session.Session) error {
			return sess.SetCheckpoint(payload.Token, payload.CheckpointID)
		})
	})

	io.OnEvent("/", "host-set-index", func(s socketio.Conn, payload struct {
		SessionID string `json:"sessionId"`
		Token     string `json:"token"`
		Index     int    `json:"index"`
	}) map[string]any {
		return srv.hostCommand(s, sessionCode(s, payload.SessionID), "host-set-index", func(sess *session.Session) error {
			return sess.SetIndex(payload.Token, payload.Index)
		})
	})

	io.OnEvent("/", "host-lock", func(s socketio.Conn, payload struct {
		SessionID string `json:"sessionId"`
		Token     string `json:"token"`
	}) map[string]any {
		return srv.hostCommand(s, sessionCode(s, payload.SessionID), "host-lock", func(sess *session.Session) error {
			return sess.Lock(payload.Token)
		})
	})

	io.OnEvent("/", "host-reveal", func(s socketio.Conn, payload struct {
		SessionID string `json:"sessionId"`
		Token     string `json:"token"`
		Index     int    `json:"index"`
		Struck    bool   `json:"struck"`
	}) map[string]any {
		return srv.hostCommand(s, sessionCode(s, payload.SessionID), "host-reveal", func(sess *session.Session) error {
			return sess.Reveal(payload.Token, payload.Index, payload.Struck)
		})
	})

	io.OnEvent("/", "host-reset", func(s socketio.Conn, payload struct {
		SessionID string `json:"sessionId"`
		Token     string `json:"token"`
	}) map[string]any {
		return srv.hostCommand(s, sessionCode(s, payload.SessionID), "host-reset", func(sess *session.Session) error {
			return sess.Reset(payload.Token)
		})
	})

	io.OnEvent("/", "host-end-session", func(s socketio.Conn, payload struct {
		SessionID string `json:"sessionId"`
		Token     string `json:"token"`
	}) map[string]any {
		code := sessionCode(s, payload.SessionID)
		if err := srv.store.End(code, payload.Token); err != nil {
			return srv.reject(s, err)
		}
		log.Info().Str("code", code).Msg("host-end-session")
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		ctx := connCtx(s)
		if ctx.Code != "" {
			srv.removeMember(ctx.Code, s)
			if ctx.Role == session.RolePlayer && ctx.PlayerID != "" {
				if sess, err := srv.store.Get(ctx.Code); err == nil {
					sess.MarkDisconnected(ctx.PlayerID)
					srv.emitSnapshots(ctx.Code)
				}
			}
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// hostCommand runs a mutating host command and, when it applies, fans the
// new snapshot out to every connection in the session. Rejections go only
// to the caller; nothing else is broadcast.
func (srv *Server) hostCommand(s socketio.Conn, code, name string, apply func(*session.Session) error) map[string]any {
	sess, err := srv.store.Get(code)
	if err != nil {
		return srv.reject(s, err)
	}
	if err := apply(sess); err != nil {
		return srv.reject(s, err)
	}
	log.Info().Str("code", code).Str("cmd", name).Msg("host command applied")
	srv.emitSnapshots(code)
	return map[string]any{"ok": true}
}

// sessionCode prefers the command's explicit sessionId, falling back to the
// session the connection joined.
func sessionCode(s socketio.Conn, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return connCtx(s).Code
}

// setPrompt routes host-set-prompt into the activity-appropriate handler.
func setPrompt(sess *session.Session, token string, p promptPayload) error {
	switch sess.Kind {
	case session.KindGenericRound:
		return sess.SetQuestion(token, session.Question{
			Prompt:        p.Prompt,
			Options:       p.Options,
			CorrectOption: p.Correct,
			TimeLimitSec:  p.TimeSec,
		})
	case session.KindAnswerBoard:
		return sess.SetBoardPrompt(token, p.Prompt)
	case session.KindCategoryVote:
		return sess.OpenVote(token, p.Prompt, p.Ballot)
	case session.KindIndexReveal:
		return sess.SetItems(token, p.Items)
	default:
		return session.ErrInvalidTransition
	}
}

func (srv *Server) addMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]socketio.Conn)
	}
	srv.members[code][c.ID()] = c
}

func (srv *Server) removeMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[code]; m != nil {
		delete(m, c.ID())
		if len(m) == 0 {
			delete(srv.members, code)
		}
	}
}

// emitSnapshots recomputes the canonical snapshot and sends each live
// connection its role projection. Latest wins: a connection that misses a
// broadcast converges on the next one.
func (srv *Server) emitSnapshots(code string) {
	sess, err := srv.store.Get(code)
	if err != nil {
		return
	}
	for _, c := range srv.sessionConns(code) {
		ctx := connCtx(c)
		c.Emit("snapshot", sess.BuildSnapshot(ctx.Role, ctx.PlayerID))
	}
}

// emitDestroyed tells every connection the session is gone and drops the
// registry entry.
func (srv *Server) emitDestroyed(code string) {
	conns := srv.sessionConns(code)
	srv.mu.Lock()
	delete(srv.members, code)
	srv.mu.Unlock()
	for _, c := range conns {
		c.Emit("session-destroyed", map[string]any{"sessionId": code})
	}
}

func (srv *Server) sessionConns(code string) []socketio.Conn {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	out := make([]socketio.Conn, 0, len(srv.members[code]))
	for _, c := range srv.members[code] {
		out = append(out, c)
	}
	return out
}

func (srv *Server) reject(s socketio.Conn, err error) map[string]any {
	reason := session.Reason(err)
	s.Emit("rejected", map[string]any{"reason": reason})
	return map[string]any{"error": reason}
}

func connCtx(s socketio.Conn) *ConnCtx {
	if ctx, ok := s.Context().(*ConnCtx); ok && ctx != nil {
		return ctx
	}
	return &ConnCtx{}
}
