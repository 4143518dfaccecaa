package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msavelyev/stocklive/internal/api"
	"github.com/msavelyev/stocklive/internal/client/models"
	"github.com/msavelyev/stocklive/internal/logging"
)

const (
	// readWait bounds how long the watch socket may stay silent; the server
	// pings well inside this window, and every ping pushes the deadline out.
	readWait = 60 * time.Second
	// writeWait bounds a single control frame write.
	writeWait = 10 * time.Second
)

// TokenSource supplies access tokens for authenticated calls. The identity
// client implements it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client implements Store over the stocklive HTTP API, with live
// subscriptions carried on a websocket.
type Client struct {
	baseURL  string
	httpc    *http.Client
	dialer   *websocket.Dialer
	tokens   TokenSource
	log      logging.Logger
	readWait time.Duration
}

// NewClient builds a store client for the given server base URL.
func NewClient(baseURL string, tokens TokenSource, log logging.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		httpc:    &http.Client{Timeout: 15 * time.Second},
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		tokens:   tokens,
		log:      log.With("module", "store_client"),
		readWait: readWait,
	}
}

func (c *Client) Insert(ctx context.Context, rec models.Record) (string, error) {
	var resp api.InsertResponse
	req := api.InsertRequest{Record: recordToWire(rec)}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/records", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) Patch(ctx context.Context, id string, patch models.Fields, updatedAt time.Time) error {
	wire := api.RecordPatch{
		Kind:        patch.Kind,
		Name:        patch.Name,
		Category:    patch.Category,
		Stock:       patch.Stock,
		Price:       patch.Price,
		Description: patch.Description,
		UpdatedAt:   &updatedAt,
	}
	return c.doJSON(ctx, http.MethodPatch, "/api/v1/records/"+url.PathEscape(id), wire, nil)
}

func (c *Client) Remove(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/records/"+url.PathEscape(id), nil, nil)
}

// Subscribe dials the watch endpoint. The server scopes the stream by the
// access token's subject; ownerID is sent along for cross-checking only.
func (c *Client) Subscribe(ctx context.Context, ownerID string) (Subscription, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, NewError(KindUnknown, err)
	}

	wsURL, err := watchURL(c.baseURL, ownerID, token)
	if err != nil {
		return nil, NewError(KindUnknown, err)
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, NewError(KindUnknown, fmt.Errorf("watch dial: %w", err))
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &wsSubscription{
		conn:   conn,
		snaps:  make(chan models.Snapshot, 4),
		ctx:    subCtx,
		cancel: cancel,
		wait:   c.readWait,
	}
	go sub.readLoop(c.log)
	return sub, nil
}

type wsSubscription struct {
	conn   *websocket.Conn
	snaps  chan models.Snapshot
	ctx    context.Context
	cancel context.CancelFunc
	wait   time.Duration
	once   sync.Once
}

func (s *wsSubscription) Snapshots() <-chan models.Snapshot {
	return s.snaps
}

func (s *wsSubscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		_ = s.conn.Close()
	})
}

// readLoop decodes snapshot messages and forwards them in delivery order.
// It never reorders or coalesces; a slow consumer backpressures the socket.
func (s *wsSubscription) readLoop(log logging.Logger) {
	defer close(s.snaps)
	defer s.Cancel()

	_ = s.conn.SetReadDeadline(time.Now().Add(s.wait))
	// The server's pings are the idle-liveness signal: each one must push
	// the deadline out before the pong goes back.
	s.conn.SetPingHandler(func(data string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.wait))
		return s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		var msg api.SnapshotMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if s.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn(s.ctx, "watch socket closed", "err", err)
			}
			return
		}
		if msg.Type != api.MessageTypeSnapshot {
			continue
		}

		snap := make(models.Snapshot, 0, len(msg.Records))
		for _, r := range msg.Records {
			snap = append(snap, recordFromWire(r))
		}

		select {
		case s.snaps <- snap:
		case <-s.ctx.Done():
			return
		}
	}
}

func watchURL(baseURL, ownerID, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/records/watch"
	q := u.Query()
	q.Set(api.TokenQueryParam, token)
	q.Set("owner_id", ownerID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return NewError(KindUnknown, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return NewError(KindUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return NewError(KindUnknown, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return NewError(KindUnknown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewError(KindUnknown, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func classifyResponse(resp *http.Response) error {
	var envelope api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return NewError(KindUnknown, fmt.Errorf("http %d", resp.StatusCode))
	}
	kind := KindUnknown
	if envelope.Error.Code == api.CodeNotFound {
		kind = KindNotFound
	}
	return NewError(kind, fmt.Errorf("%s (http %d)", envelope.Error.Message, resp.StatusCode))
}

func recordToWire(r models.Record) api.Record {
	return api.Record{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Kind:        r.Kind,
		Name:        r.Name,
		Category:    r.Category,
		Stock:       r.Stock,
		Price:       r.Price,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func recordFromWire(r api.Record) models.Record {
	return models.Record{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Kind:        r.Kind,
		Name:        r.Name,
		Category:    r.Category,
		Stock:       r.Stock,
		Price:       r.Price,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
