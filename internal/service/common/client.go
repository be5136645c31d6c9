//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	api "github.com/oshokin/still-alive/internal/api/grpc/liveness"
	"github.com/oshokin/still-alive/internal/config"
	domain "github.com/oshokin/still-alive/internal/domain/liveness"
)

// Client wraps the liveness gRPC client with timeouts and domain decoding.
type Client struct {
	// conn is the underlying gRPC connection to the liveness server.
	conn *grpc.ClientConn
	// api is the LivenessService client stub.
	api *api.LivenessClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errContactRequired is returned when AddContact gets nil.
	errContactRequired = errors.New("contact must be provided")
)

// Dial establishes a gRPC connection to the liveness server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial liveness server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewLivenessClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// CheckIn records a check-in on the server.
func (c *Client) CheckIn(ctx context.Context, actor *domain.Actor) (domain.CheckInEvent, domain.Overview, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.CheckIn(callCtx, api.ActorToStruct(actor))
	if err != nil {
		return domain.CheckInEvent{}, domain.Overview{}, fmt.Errorf("check in: %w", err)
	}

	return api.CheckInReplyFromStruct(resp)
}

// Status fetches the monitor overview.
func (c *Client) Status(ctx context.Context) (domain.Overview, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return domain.Overview{}, fmt.Errorf("get status: %w", err)
	}

	return api.OverviewFromStruct(resp)
}

// Contacts lists the registered emergency contacts.
func (c *Client) Contacts(ctx context.Context) ([]*domain.Contact, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListContacts(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	return api.ContactListFromStruct(resp)
}

// AddContact registers a contact.
func (c *Client) AddContact(ctx context.Context, contact *domain.Contact) (api.AddReply, error) {
	if contact == nil {
		return api.AddReply{}, errContactRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.AddContact(callCtx, api.ContactToStruct(contact))
	if err != nil {
		return api.AddReply{}, fmt.Errorf("add contact: %w", err)
	}

	return api.AddReplyFromStruct(resp)
}

// RemoveContacts removes contacts by zero-based position.
func (c *Client) RemoveContacts(ctx context.Context, positions []int) (api.RemoveReply, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.RemoveContacts(callCtx, api.PositionsToStruct(positions))
	if err != nil {
		return api.RemoveReply{}, fmt.Errorf("remove contacts: %w", err)
	}

	return api.RemoveReplyFromStruct(resp)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
