package bridge

import (
	"context"

	cws "github.com/coder/websocket"
)

// wsChannel carries JSON-RPC messages for one extension connection over a
// coder/websocket.Conn, satisfying the jrpc2 channel.Channel interface.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "surface closed")
}
