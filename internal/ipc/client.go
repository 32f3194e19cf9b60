package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping checks whether the daemon answers on the socket.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call("Parkour.Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Parkour.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogContent retrieves the full content of the live log.
func (c *Client) LogContent() (*LogContentResponse, error) {
	var resp LogContentResponse
	if err := c.client.Call("Parkour.LogContent", LogContentRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogLocation retrieves the live log path.
func (c *Client) LogLocation() (*LogLocationResponse, error) {
	var resp LogLocationResponse
	if err := c.client.Call("Parkour.LogLocation", LogLocationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DefaultPaths retrieves candidate log locations in resolution order.
func (c *Client) DefaultPaths() (*DefaultPathsResponse, error) {
	var resp DefaultPathsResponse
	if err := c.client.Call("Parkour.DefaultPaths", DefaultPathsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidatePath checks whether a path exists from the daemon's view.
func (c *Client) ValidatePath(path string) (*ValidatePathResponse, error) {
	var resp ValidatePathResponse
	if err := c.client.Call("Parkour.ValidatePath", ValidatePathRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Probe announces an explicit log path through the daemon's event hub.
func (c *Client) Probe(path string) (*ProbeResponse, error) {
	var resp ProbeResponse
	if err := c.client.Call("Parkour.Probe", ProbeRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events pages buffered watch events.
func (c *Client) Events(req EventsRequest) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.client.Call("Parkour.Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns run log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Parkour.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Parkour.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Parkour.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
