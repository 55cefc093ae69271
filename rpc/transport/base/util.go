package base

import (
	"bufio"
	"errors"
	"math"
	"net"
	"time"

	"github.com/ValentinKolb/tKV/rpc/common"
	"golang.org/x/time/rate"
)

// serverConn is the per-connection state of the server transport
type serverConn struct {
	id          string
	conn        net.Conn
	idleTimeout time.Duration
	limiter     *rate.Limiter // nil if rate limiting is disabled
}

// newServerConn creates the connection state, including the rate limiter if configured
func newServerConn(id string, conn net.Conn, config common.ServerConfig) *serverConn {
	c := &serverConn{
		id:          id,
		conn:        conn,
		idleTimeout: config.IdleTimeout(),
	}
	if config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), limiterBurst(config.RateLimit))
	}
	return c
}

// limiterBurst allows one second worth of commands at once, at least one
func limiterBurst(perSecond float64) int {
	return int(math.Max(1, math.Ceil(perSecond)))
}

// armReadDeadline sets the idle deadline for the next read
func (c *serverConn) armReadDeadline() error {
	if c.idleTimeout <= 0 {
		return nil
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
}

// write sends a response. Failures are logged and otherwise ignored,
// the next read decides whether the connection is still usable.
func (c *serverConn) write(resp []byte) {
	if c.idleTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.idleTimeout)); err != nil {
			Logger.Warningf("[%s] failed to set write deadline: %v", c.id, err)
		}
	}

	if _, err := c.conn.Write(resp); err != nil {
		Logger.Warningf("[%s] failed to write response: %v", c.id, err)
	}
}

// discardLine skips the rest of a line that did not fit into the reader's buffer
func discardLine(c *serverConn, reader *bufio.Reader) error {
	for {
		_, err := reader.ReadSlice(common.Delimiter)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
		if err := c.armReadDeadline(); err != nil {
			return err
		}
	}
}
