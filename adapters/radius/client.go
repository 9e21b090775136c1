package radius

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/layer-3/casque/config"
	"github.com/layer-3/casque/core"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// Client sends access requests to the CASQUE SNR server over RADIUS
type Client struct {
	client  *radius.Client
	secret  []byte
	addr    string
	timeout time.Duration

	// Holds one token per exchange in flight when a fixed local port is configured,
	// nil otherwise
	slot chan struct{}
}

// NewClient creates a RADIUS client from the CASQUE configuration.
// Each exchange is bounded by timeout.
func NewClient(cfg *config.Casque, timeout time.Duration) *Client {
	rc := &radius.Client{
		Retry: 0,
	}
	if cfg.LocalPort != 0 {
		rc.Dialer = net.Dialer{
			LocalAddr: &net.UDPAddr{Port: cfg.LocalPort},
		}
	}

	c := &Client{
		client:  rc,
		secret:  cfg.Secret,
		addr:    net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port)),
		timeout: timeout,
	}
	if cfg.LocalPort != 0 {
		// A fixed local port can only carry one exchange at a time
		c.slot = make(chan struct{}, 1)
	}
	return c
}

// Send implements ports.ProtocolClient
func (c *Client) Send(ctx context.Context, req core.AccessRequest) core.Exchange {
	packet := radius.New(radius.CodeAccessRequest, c.secret)
	if err := rfc2865.UserName_SetString(packet, req.Principal); err != nil {
		return core.ErrorExchange(fmt.Errorf("failed to encode user name: %w", err))
	}
	if err := rfc2865.UserPassword_SetString(packet, req.Credential); err != nil {
		return core.ErrorExchange(fmt.Errorf("failed to encode password: %w", err))
	}
	if len(req.State) > 0 {
		if err := rfc2865.State_Set(packet, req.State); err != nil {
			return core.ErrorExchange(fmt.Errorf("failed to encode state: %w", err))
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.slot != nil {
		select {
		case c.slot <- struct{}{}:
			defer func() { <-c.slot }()
		case <-ctx.Done():
			return core.ErrorExchange(fmt.Errorf("%w: waiting for local port: %v", core.ErrTransport, ctx.Err()))
		}
	}

	response, err := c.client.Exchange(ctx, packet, c.addr)
	if err != nil {
		return core.ErrorExchange(fmt.Errorf("%w: %v", core.ErrTransport, err))
	}

	return decode(response)
}

func decode(response *radius.Packet) core.Exchange {
	switch response.Code {
	case radius.CodeAccessChallenge:
		return core.Exchange{
			Outcome:   core.OutcomeChallenge,
			State:     rfc2865.State_Get(response),
			Challenge: rfc2865.ReplyMessage_GetString(response),
		}
	case radius.CodeAccessAccept:
		return core.Exchange{Outcome: core.OutcomeAccept}
	case radius.CodeAccessReject:
		return core.Exchange{
			Outcome: core.OutcomeReject,
			Detail:  rfc2865.ReplyMessage_GetString(response),
		}
	default:
		return core.Exchange{
			Outcome: core.OutcomeError,
			Detail:  fmt.Sprintf("unexpected response code %v", response.Code),
		}
	}
}
