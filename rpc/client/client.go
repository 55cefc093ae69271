package client

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/tKV/lib/command"
	"github.com/ValentinKolb/tKV/lib/store"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/ValentinKolb/tKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// ServerError is an "ERR: " response of the server other than a missing key,
// Msg is the message after the prefix.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string {
	return e.Msg
}

// Client sends commands to tKV servers
type Client struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// NewClient connects the transport and returns a client using it
//
// Usage:
//
//	c, err := client.NewClient(config, tcp.NewTCPClientTransport())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	value, err := c.Get("lang")
func NewClient(config common.ClientConfig, transport transport.IRPCClientTransport) (*Client, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &Client{
		config:    config,
		transport: transport,
	}, nil
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

// Get returns the value of key. A missing key is reported as store error with code RetCNotFound.
func (c *Client) Get(key string) (string, error) {
	return c.do(command.NewGet(key))
}

// Set stores value under key and returns the server's result message
func (c *Client) Set(key, value string) (string, error) {
	return c.do(command.NewSet(key, value))
}

// Delete removes key and returns its previous value.
// A missing key is reported as store error with code RetCNotFound.
func (c *Client) Delete(key string) (string, error) {
	res, err := c.do(command.NewDel(key))
	if err != nil {
		return "", err
	}
	return previousValue(res), nil
}

// Exec sends a raw request line and returns the result of an "OK: " response.
// The line is not validated, parse errors are reported by the server as *ServerError.
func (c *Client) Exec(line string) (string, error) {
	if strings.ContainsAny(line, "\r\n") {
		return "", fmt.Errorf("request must be a single line")
	}

	respBytes, err := c.transport.Send(common.EncodeRequest(line))
	if err != nil {
		return "", err
	}

	resp, err := common.ParseResponse(respBytes)
	if err != nil {
		return "", err
	}

	if resp.Ok {
		return resp.Payload, nil
	}
	if resp.Payload == store.NotFoundMsg {
		return "", store.ErrNotFound()
	}
	return "", &ServerError{Msg: resp.Payload}
}

// Close closes all connections of the client
func (c *Client) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// do encodes a command and sends it
func (c *Client) do(cmd command.Command) (string, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}
	return c.Exec(cmd.String())
}

// previousValue extracts the value from a delete result, other texts are returned as they are
func previousValue(result string) string {
	const prefix, suffix = "Previous value: '", "'"
	if strings.HasPrefix(result, prefix) && strings.HasSuffix(result, suffix) && len(result) >= len(prefix)+len(suffix) {
		return result[len(prefix) : len(result)-len(suffix)]
	}
	return result
}
