package client

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/logging"
	"github.com/hupe1980/addonbridge/packet"
)

// DefaultNamespace is the request namespace bridges listen on.
const DefaultNamespace = "bridge"

// ErrUnavailable is returned by Connect when the target add-on does not
// acknowledge.
var ErrUnavailable = errors.New("addon unavailable")

// Sender sends one request and returns its eventual response body.
type Sender interface {
	Send(identifier string, body packet.Body, optFns ...func(o *packet.SendOptions)) *packet.Future[packet.Body]
}

// Options configures a Connection.
type Options struct {
	// Namespace prefixes request identifiers. Defaults to DefaultNamespace.
	Namespace string
	// TimeoutTicks overrides the sender's tick budget when positive.
	TimeoutTicks int
	// Lookup resolves host references in results. Without one, block,
	// permutation and entity records are returned as plain maps.
	Lookup host.Lookup
	// Logger defaults to a no-op logger.
	Logger logging.Logger
}

// Connection is a handle on one remote bridge. It holds no state beyond its
// target and is safe for concurrent use.
type Connection struct {
	sender  Sender
	addonID string
	opts    Options
	logger  logging.Logger
}

// New returns a connection to addonID without checking that it exists.
func New(sender Sender, addonID string, optFns ...func(o *Options)) *Connection {
	opts := Options{Namespace: DefaultNamespace}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}

	return &Connection{
		sender:  sender,
		addonID: addonID,
		opts:    opts,
		logger:  logging.OrNoOp(opts.Logger),
	}
}

// Connect pings addonID and resolves to a connection once it acknowledges.
func Connect(sender Sender, addonID string, optFns ...func(o *Options)) *packet.Future[*Connection] {
	return New(sender, addonID, optFns...).Connect()
}

// AddonID returns the target add-on id.
func (c *Connection) AddonID() string { return c.addonID }

// Connect checks that the target bridge is registered. Any failure,
// including a timeout, is reported as ErrUnavailable wrapping the cause.
func (c *Connection) Connect() *packet.Future[*Connection] {
	body := packet.NewBody().Set("method", "connect").Set("addon", c.addonID)
	return packet.Transform(c.send(body), func(resp packet.Body, err error) (*Connection, error) {
		if err == nil {
			err = packet.AsRemoteError(resp)
		}
		if err != nil {
			c.logger.Warn("client.connect.unavailable", "addon", c.addonID, "error", err)
			return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, c.addonID, err)
		}
		c.logger.Debug("client.connect", "addon", c.addonID, "version", resp.GetString("version"))
		return c, nil
	})
}

// Get reads property of obj.
func (c *Connection) Get(obj host.Object, property string) *packet.Future[any] {
	return packet.Map(c.send(c.request("get", obj, property)), c.value)
}

// Set writes value to property of obj.
func (c *Connection) Set(obj host.Object, property string, value any) *packet.Future[struct{}] {
	body := c.request("set", obj, property).Set("value", packet.EncodeValue(value))
	return packet.Map(c.send(body), func(resp packet.Body) (struct{}, error) {
		return struct{}{}, packet.AsRemoteError(resp)
	})
}

// Has reports whether property exists on obj.
func (c *Connection) Has(obj host.Object, property string) *packet.Future[bool] {
	return packet.Map(c.send(c.request("has", obj, property)), func(resp packet.Body) (bool, error) {
		return resp.GetBool("value"), nil
	})
}

// Call invokes the function stored in property of obj with args.
func (c *Connection) Call(obj host.Object, property string, args ...any) *packet.Future[any] {
	encoded := make([]any, len(args))
	for i, arg := range args {
		encoded[i] = packet.EncodeValue(arg)
	}
	body := c.request("call", obj, property).Set("args", encoded)
	return packet.Map(c.send(body), c.value)
}

// Docs asks the bridge to show its documentation to player.
func (c *Connection) Docs(player host.Player) *packet.Future[struct{}] {
	body := packet.NewBody().Set("method", "docs").Set("addon", c.addonID).WriteEntity("player", player)
	return packet.Map(c.send(body), func(resp packet.Body) (struct{}, error) {
		return struct{}{}, packet.AsRemoteError(resp)
	})
}

func (c *Connection) request(method string, obj host.Object, property string) packet.Body {
	body := packet.NewBody().
		Set("method", method).
		Set("addon", c.addonID).
		Set("object", string(obj.Kind())).
		Set("property", property)
	if e, ok := obj.(host.Entity); ok {
		body.Set("entityId", e.ID())
	}
	return body
}

func (c *Connection) send(body packet.Body) *packet.Future[packet.Body] {
	id := fmt.Sprintf("%s:%s", c.opts.Namespace, uuid.NewString())
	c.logger.Debug("client.request", "addon", c.addonID, "method", body.GetString("method"), "identifier", id)
	if c.opts.TimeoutTicks > 0 {
		return c.sender.Send(id, body, packet.WithTimeout(c.opts.TimeoutTicks))
	}
	return c.sender.Send(id, body)
}

func (c *Connection) value(resp packet.Body) (any, error) {
	if err := packet.AsRemoteError(resp); err != nil {
		return nil, err
	}
	return packet.DecodeValue(resp.Get("value"), c.opts.Lookup), nil
}
