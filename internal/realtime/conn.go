package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cdrandin/SMS-Simple-Web-App/internal/auth"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/logutil"
	"github.com/coder/websocket"
)

type (
	// AuthService is what the transport needs from the auth layer:
	// credential verification and resumable token handling. The
	// publish gate itself is wired into the hub as middleware.
	AuthService interface {
		Login(ctx context.Context, username, password string) (*auth.Claim, error)
		Issue(ctx context.Context, claim *auth.Claim) (string, error)
		Redeem(ctx context.Context, token string) (*auth.Claim, error)
	}

	// Conn is one realtime connection. Its claim moves through
	// Unauthenticated (nil) -> Authenticated (set) and is destroyed
	// on disconnect.
	Conn struct {
		ws  *websocket.Conn
		hub *Hub
		svc AuthService

		// serializes writes; broadcasts land from other goroutines
		writemtx sync.Mutex

		mtx   sync.Mutex
		claim *auth.Claim
	}
)

// loginTimeout bounds the store lookup plus bcrypt verification so a
// wedged database cannot hang a connection forever.
const loginTimeout = 30 * time.Second

// Handler upgrades requests to websocket connections and serves them
// until the client goes away or ctx is cancelled.
func Handler(hub *Hub, svc AuthService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logutil.GetOrDefault(ctx)
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Msg("Websocket upgrade refused")
			return
		}
		c := &Conn{ws: ws, hub: hub, svc: svc}
		defer hub.unsubscribeAll(c)
		defer c.drop()
		c.serve(ctx)
		ws.Close(websocket.StatusNormalClosure, "")
	})
}

func (c *Conn) serve(ctx context.Context) {
	log := logutil.GetOrDefault(ctx)
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("Connection closed")
			return
		}
		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			c.respond(ctx, req.CID, nil, auth.ErrMalformedRequest)
			continue
		}
		c.dispatch(ctx, req)
	}
}

func (c *Conn) dispatch(ctx context.Context, req request) {
	switch req.Event {
	case "login":
		c.handleLogin(ctx, req)
	case "authenticate":
		c.handleAuthenticate(ctx, req)
	case "subscribe":
		c.handleSubscribe(ctx, req)
	case "publish":
		c.handlePublish(ctx, req)
	case "ping":
		// the ping counter is process wide; the count goes out on the
		// pong channel as an exchange publish
		c.hub.broadcast(ctx, "pong", c.hub.nextPong())
	default:
		c.respond(ctx, req.CID, nil, auth.ErrMalformedRequest)
	}
}

func (c *Conn) handleLogin(ctx context.Context, req request) {
	var creds credentials
	if err := json.Unmarshal(req.Data, &creds); err != nil {
		c.respond(ctx, req.CID, nil, auth.ErrMalformedRequest)
		return
	}
	lctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()
	claim, err := c.svc.Login(lctx, creds.Username, creds.Password)
	if err != nil {
		c.respond(ctx, req.CID, nil, publicError(ctx, err))
		return
	}
	token, err := c.svc.Issue(lctx, claim)
	if err != nil {
		c.respond(ctx, req.CID, nil, publicError(ctx, err))
		return
	}
	c.bind(claim)
	c.respond(ctx, req.CID, loginResult{Channel: claim.Channel, Token: token}, nil)
}

func (c *Conn) handleAuthenticate(ctx context.Context, req request) {
	var tk authToken
	if err := json.Unmarshal(req.Data, &tk); err != nil || tk.Token == "" {
		c.respond(ctx, req.CID, nil, auth.ErrMalformedRequest)
		return
	}
	claim, err := c.svc.Redeem(ctx, tk.Token)
	if err != nil {
		c.respond(ctx, req.CID, nil, publicError(ctx, err))
		return
	}
	c.bind(claim)
	c.respond(ctx, req.CID, channelRef{Channel: claim.Channel}, nil)
}

func (c *Conn) handleSubscribe(ctx context.Context, req request) {
	var ref channelRef
	if err := json.Unmarshal(req.Data, &ref); err != nil || ref.Channel == "" {
		c.respond(ctx, req.CID, nil, auth.ErrMalformedRequest)
		return
	}
	c.hub.subscribe(ref.Channel, c)
	c.respond(ctx, req.CID, channelRef{Channel: ref.Channel}, nil)
}

func (c *Conn) handlePublish(ctx context.Context, req request) {
	var pub publishData
	if err := json.Unmarshal(req.Data, &pub); err != nil || pub.Channel == "" {
		c.respond(ctx, req.CID, nil, auth.ErrMalformedRequest)
		return
	}
	err := c.hub.checkPublishIn(c.Claim(), pub.Channel)
	if err != nil {
		c.respond(ctx, req.CID, nil, err)
		return
	}
	c.hub.broadcast(ctx, pub.Channel, pub.Data)
	c.respond(ctx, req.CID, nil, nil)
}

// bind makes the connection authenticated and registers it for
// traffic on the claim's private channel.
func (c *Conn) bind(claim *auth.Claim) {
	c.mtx.Lock()
	c.claim = claim
	c.mtx.Unlock()
	c.hub.subscribe(claim.Channel, c)
}

func (c *Conn) drop() {
	c.mtx.Lock()
	c.claim = nil
	c.mtx.Unlock()
}

func (c *Conn) Claim() *auth.Claim {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.claim
}

// publicError keeps the wire responses inside the auth error
// taxonomy. Anything else (storage down, signing failure) degrades
// just this operation and is only logged server side.
func publicError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrMalformedRequest),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrAccountNotReady),
		errors.Is(err, auth.ErrUnauthorized):
		return err
	}
	log := logutil.GetOrDefault(ctx)
	log.Error().Err(err).Msg("Operation failed")
	return errInternal
}

var errInternal = errors.New("Internal server error")

// respond answers a request frame. Requests without a correlation id
// expect no answer, except that errors are always reported.
func (c *Conn) respond(ctx context.Context, cid uint64, data interface{}, err error) {
	if cid == 0 && err == nil {
		return
	}
	res := response{RID: cid, Data: data}
	if err != nil {
		res.Error = err.Error()
	}
	buf, merr := json.Marshal(res)
	if merr != nil {
		log := logutil.GetOrDefault(ctx)
		log.Error().Err(merr).Msg("Unable to marshal response frame")
		return
	}
	c.write(ctx, buf)
}

func (c *Conn) deliver(p push) error {
	buf, err := json.Marshal(p)
	if err != nil {
		return err
	}
	// delivery happens from the publisher's goroutine; a slow or dead
	// receiver must not wedge it
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.write(ctx, buf)
}

func (c *Conn) write(ctx context.Context, buf []byte) error {
	c.writemtx.Lock()
	defer c.writemtx.Unlock()
	return c.ws.Write(ctx, websocket.MessageText, buf)
}
