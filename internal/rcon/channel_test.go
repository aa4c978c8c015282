package rcon

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Perennis/pkg/errors"
)

const (
	typeResponseValue  = 0
	typeExecOrAuthResp = 2
	typeAuth           = 3
)

// fakeServer speaks just enough of the Source RCON protocol to accept one
// authenticated command per connection.
type fakeServer struct {
	ln       net.Listener
	password string

	mu       sync.Mutex
	commands []string
}

func newFakeServer(t *testing.T, password string) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{ln: ln, password: password}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()
	for {
		id, typ, body, err := readPacket(conn)
		if err != nil {
			return
		}
		switch typ {
		case typeAuth:
			writePacket(conn, id, typeResponseValue, "")
			if body != s.password {
				id = -1
			}
			writePacket(conn, id, typeExecOrAuthResp, "")
		case typeExecOrAuthResp:
			s.mu.Lock()
			s.commands = append(s.commands, body)
			s.mu.Unlock()
			writePacket(conn, id, typeResponseValue, "ok")
		}
	}
}

func (s *fakeServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func readPacket(r io.Reader) (int32, int32, string, error) {
	var size int32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return 0, 0, "", err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, 0, "", err
	}
	id := int32(binary.LittleEndian.Uint32(buf[0:4]))
	typ := int32(binary.LittleEndian.Uint32(buf[4:8]))
	body := string(buf[8 : len(buf)-2])
	return id, typ, body, nil
}

func writePacket(w io.Writer, id, typ int32, body string) {
	size := int32(len(body) + 10)
	buf := make([]byte, 0, size+4)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(size))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(typ))
	buf = append(buf, body...)
	buf = append(buf, 0, 0)
	w.Write(buf)
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, `servermsg "Server will restart in 5 minutes..."`, ServerMessage("Server will restart in 5 minutes..."))
	assert.Equal(t, `servermsg "it's 'quoted'"`, ServerMessage(`it's "quoted"`))
}

func TestChannel_Send(t *testing.T) {
	srv := newFakeServer(t, "secret")
	ch := NewChannel(srv.ln.Addr().String(), "secret", time.Second)

	require.NoError(t, ch.Send(context.Background(), ServerMessage("hello")))
	require.NoError(t, ch.Send(context.Background(), CmdSave))

	assert.Equal(t, []string{`servermsg "hello"`, "save"}, srv.received())
}

func TestChannel_SendWrongPassword(t *testing.T) {
	srv := newFakeServer(t, "secret")
	ch := NewChannel(srv.ln.Addr().String(), "nope", time.Second)

	err := ch.Send(context.Background(), CmdQuit)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandSend, errors.CodeOf(err))
	assert.Empty(t, srv.received())
}

func TestChannel_SendUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	err = NewChannel(addr, "pw", 200*time.Millisecond).Send(context.Background(), CmdSave)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandSend, errors.CodeOf(err))
}

func TestChannel_SendCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewChannel("127.0.0.1:1", "pw", time.Second).Send(ctx, CmdSave)
	assert.ErrorIs(t, err, context.Canceled)
}
