package ipc

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// maxFrameSize bounds a single incoming payload. Discord sends small
// JSON documents; anything near this is a corrupt stream.
const maxFrameSize = 10 * 1024 * 1024

var ErrConnClosed = errors.New("ipc: connection closed")

// Conn is one open IPC channel to the local discord client.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
	closed bool
}

// NewConn dials the local discord IPC endpoint, probing the usual
// socket numbers in order.
func NewConn() (*Conn, error) {
	c, err := dial()
	if err != nil {
		return nil, err
	}
	return &Conn{
		conn:   c,
		reader: bufio.NewReader(c),
	}, nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Send writes one encoded message to the channel.
func (c *Conn) Send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	_, err := c.conn.Write(m.Encode())
	return err
}

// SendOp serializes payload and sends it under op.
func (c *Conn) SendOp(op OpCode, payload any) error {
	m, err := NewMessage(op, payload)
	if err != nil {
		return err
	}
	return c.Send(m)
}

// Receive blocks until the next complete frame arrives and decodes it.
func (c *Conn) Receive() (Message, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(c.reader, header); err != nil {
		return Message{}, err
	}

	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxFrameSize {
		return Message{}, fmt.Errorf("invalid payload length %d", length)
	}

	frame := make([]byte, headerSize+int(length))
	copy(frame, header)
	if _, err := io.ReadFull(c.reader, frame[headerSize:]); err != nil {
		return Message{}, err
	}

	return DecodeMessage(frame)
}
