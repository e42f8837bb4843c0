package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

const (
	sendQueueSize = 64
	writeTimeout  = 5 * time.Second
)

// Authenticator is implemented by types able to extract subject IDs from
// Authorization headers.
type Authenticator interface {
	SubjectFromAuthHeader(string) (string, error)
}

// Gateway upgrades realtime connections. A token must accompany the handshake
// itself (query parameter or Authorization header); a connection that fails to
// authenticate is rejected before the upgrade and no session exists.
//
// Room joins are deliberately not membership-checked: joining a room only
// grants eligibility to receive events, never to mutate data, and every
// mutation re-checks membership on its own. Flagged for stakeholder review
// before any hardening.
type Gateway struct {
	auth           Authenticator
	registry       *RoomRegistry
	logger         *log.Logger
	originPatterns []string
}

// NewGateway creates a gateway over the given registry.
func NewGateway(auth Authenticator, registry *RoomRegistry, logger *log.Logger, originPatterns []string) *Gateway {
	if auth == nil || registry == nil {
		panic("realtime.NewGateway: auth and registry are required")
	}
	return &Gateway{auth: auth, registry: registry, logger: logger, originPatterns: originPatterns}
}

// clientMessage is the only shape a connection may send after the handshake.
type clientMessage struct {
	Event string `json:"event"`
	Data  struct {
		ProjectID string `json:"projectId"`
	} `json:"data"`
}

const clientEventJoin = "project:join"

// Handle runs one realtime session.
func (g *Gateway) Handle(c echo.Context) error {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if token := c.QueryParam("token"); authHeader == "" && token != "" {
		authHeader = "Bearer " + token
	}
	subject, err := g.auth.SubjectFromAuthHeader(authHeader)
	if err != nil {
		// Same opaque body as the HTTP middleware; verifier internals stay
		// out of the response.
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	opts := &websocket.AcceptOptions{}
	if len(g.originPatterns) > 0 {
		opts.OriginPatterns = g.originPatterns
	}
	conn, err := websocket.Accept(c.Response().Writer, c.Request(), opts)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	cl := newClient(subject)
	defer g.registry.Remove(cl)

	go g.writePump(ctx, conn, cl)

	if data, err := EncodeEvent(domain.Connected{OK: true}); err == nil {
		cl.Send(data)
	}

	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			cl.close()
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return nil
		}
		var msg clientMessage
		if err := sonic.ConfigStd.Unmarshal(payload, &msg); err != nil {
			if g.logger != nil {
				g.logger.WithField("subject", subject).Debug("unparseable realtime message ignored")
			}
			continue
		}
		if msg.Event == clientEventJoin && msg.Data.ProjectID != "" {
			g.registry.Join(msg.Data.ProjectID, cl)
		}
	}
}

func (g *Gateway) writePump(ctx context.Context, conn *websocket.Conn, cl *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-cl.done:
			return
		case data := <-cl.out:
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancelWrite()
			if err != nil {
				cl.close()
				g.registry.Remove(cl)
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

// client is one live connection's subscriber endpoint.
type client struct {
	subject string
	out     chan []byte
	done    chan struct{}
	closeFn func()
}

func newClient(subject string) *client {
	cl := &client{
		subject: subject,
		out:     make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
	}
	var once sync.Once
	cl.closeFn = func() { once.Do(func() { close(cl.done) }) }
	return cl
}

func (c *client) close() { c.closeFn() }

// Send queues data for delivery without blocking. A closed or saturated
// connection drops the event; delivery failure is never retried or surfaced.
func (c *client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}
