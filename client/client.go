package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kyra-dev/discord-presence-go/events"
	"github.com/kyra-dev/discord-presence-go/transport/ipc"
)

type Client struct {
	AppID     string
	transport *ipc.Conn
	registry  *events.Registry
	mu        sync.Mutex

	verbose bool

	pendingActivity *Activity
	ready           bool
	activity        Activity
	reconnect       bool
	closed          bool
}

func NewClient(appID string) *Client {
	return &Client{
		AppID:     appID,
		registry:  events.NewRegistry(),
		reconnect: true,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.verbose = v
}

func (c *Client) logf(format string, a ...any) {
	if c.verbose {
		log.Printf(format, a...)
	}
}

// On registers handler for event and returns its lifetime handle. Keep
// the returned handle (or call Persist on it) for listeners that should
// outlive the registering scope; a discarded handle is eventually
// cleaned up together with its registration.
func (c *Client) On(event events.Event, handler events.Handler) *events.CallbackHandle {
	return c.registry.Register(event, handler)
}

func (c *Client) OnReady(h events.Handler) *events.CallbackHandle { return c.On(events.Ready, h) }
func (c *Client) OnError(h events.Handler) *events.CallbackHandle { return c.On(events.Error, h) }
func (c *Client) OnActivityJoin(h events.Handler) *events.CallbackHandle {
	return c.On(events.ActivityJoin, h)
}
func (c *Client) OnActivityJoinRequest(h events.Handler) *events.CallbackHandle {
	return c.On(events.ActivityJoinRequest, h)
}
func (c *Client) OnActivitySpectate(h events.Handler) *events.CallbackHandle {
	return c.On(events.ActivitySpectate, h)
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != nil {
		return errors.New("already connected")
	}

	conn, err := ipc.NewConn()
	if err != nil {
		return fmt.Errorf("dial ipc: %w", err)
	}
	c.transport = conn
	c.closed = false
	c.logf("[debug] connected to discord ipc")

	if err := c.transport.SendOp(ipc.OpHandshake, ipc.HandshakePayload(c.AppID)); err != nil {
		_ = c.transport.Close()
		c.transport = nil
		return fmt.Errorf("handshake send: %w", err)
	}

	go c.readLoop()

	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnect = false
	c.closed = true
	if c.transport != nil {
		err := c.transport.Close()
		c.transport = nil
		c.logf("[debug] connection closed")
		return err
	}
	return nil
}

func (c *Client) Login() error {
	return c.Connect()
}

func (c *Client) Logout() error {
	return c.Close()
}

func (c *Client) SetActivity(act Activity) error {
	c.mu.Lock()
	c.activity = act
	if !c.ready {
		c.pendingActivity = &act
		c.logf("[info] activity queued until READY")
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.sendSetActivity(act)
}

// ClearActivity removes the rich presence currently shown for this app.
func (c *Client) ClearActivity() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activity = Activity{}
	c.pendingActivity = nil

	if c.transport == nil {
		return errors.New("not connected")
	}

	payload := ipc.BuildDispatchPayload("SET_ACTIVITY", ipc.ActivityArgsWithPid(nil))
	return c.transport.SendOp(ipc.OpFrame, payload)
}

func (c *Client) sendSetActivity(act Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport == nil {
		return errors.New("not connected")
	}

	if act.Party != nil && len(act.Party.Size) == 2 && act.Party.ID == "" {
		act.Party.ID = uuid.NewString()
	}

	validButtons := []Button{}
	for _, b := range act.Buttons {
		label := strings.TrimSpace(b.Label)
		url := strings.TrimSpace(b.Url)
		if label == "" || url == "" || !(strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")) {
			continue
		}
		validButtons = append(validButtons, Button{Label: label, Url: url})
		if len(validButtons) == 2 {
			break
		}
	}
	act.Buttons = validButtons

	payload := ipc.BuildDispatchPayload("SET_ACTIVITY", ipc.ActivityArgsWithPid(act.payloadFields()))

	if c.verbose {
		if b, err := json.MarshalIndent(payload, "", "  "); err == nil {
			c.logf("[debug] outgoing SET_ACTIVITY payload:\n%s", string(b))
		}
	}

	return c.transport.SendOp(ipc.OpFrame, payload)
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		transport := c.transport
		c.mu.Unlock()
		if transport == nil {
			c.logf("[debug] transport nil, exiting readLoop")
			return
		}

		msg, err := transport.Receive()
		if err != nil {
			c.registry.Handle(events.Error, events.EventData{"error": err.Error()})
			c.logf("[warn] transport receive error: %v", err)
			if c.reconnect && !c.closed {
				c.tryReconnect()
			}
			return
		}

		c.handleIncoming(msg)
	}
}

func (c *Client) handleIncoming(msg ipc.Message) {
	switch msg.Opcode {
	case ipc.OpPing:
		// discord expects the ping payload echoed back
		c.sendPong(msg.Payload)
		return
	case ipc.OpClose:
		c.logf("[debug] close frame received")
		return
	case ipc.OpPong:
		return
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(msg.Payload), &doc); err != nil {
		c.logf("[warn] failed decode payload: %v", err)
		return
	}

	if c.verbose {
		if b, err := json.MarshalIndent(doc, "", "  "); err == nil {
			c.logf("[debug] incoming %s payload:\n%s", msg.Opcode, string(b))
		}
	}

	name, _ := doc["evt"].(string)
	event, ok := events.EventFromName(name)
	if !ok {
		if name != "" {
			c.logf("[debug] unhandled event %q", name)
		}
		return
	}

	data, _ := doc["data"].(map[string]any)
	c.registry.Handle(event, events.EventData(data))

	if event == events.Ready {
		c.afterReady()
	}
}

func (c *Client) sendPong(payload string) {
	c.mu.Lock()
	transport := c.transport
	c.mu.Unlock()
	if transport == nil {
		return
	}

	var echo any
	_ = json.Unmarshal([]byte(payload), &echo)
	if err := transport.SendOp(ipc.OpPong, echo); err != nil {
		c.logf("[warn] pong send failed: %v", err)
	}
}

// afterReady flushes the activity queued while the handshake was still
// in flight.
func (c *Client) afterReady() {
	c.logf("[debug] event READY")
	c.mu.Lock()
	c.ready = true
	pa := c.pendingActivity
	c.pendingActivity = nil
	c.mu.Unlock()

	if pa != nil {
		if err := c.sendSetActivity(*pa); err != nil {
			c.logf("[error] failed sending pending activity: %v", err)
		} else {
			c.logf("[info] sent pending activity after READY")
		}
	}
}

func (c *Client) tryReconnect() {
	// Drop the dead transport first; Connect refuses to dial while one
	// is still attached.
	c.mu.Lock()
	if c.transport != nil {
		_ = c.transport.Close()
		c.transport = nil
	}
	c.mu.Unlock()

	backoff := time.Second
	for i := 0; i < 5; i++ {
		c.logf("[debug] reconnect attempt %d", i+1)
		time.Sleep(backoff)
		if err := c.Connect(); err == nil {
			c.logf("[info] reconnected successfully")
			if !c.activity.IsEmpty() {
				_ = c.SetActivity(c.activity)
			}
			return
		}
		backoff *= 2
	}
	c.logf("[error] failed to reconnect after 5 attempts")
}
