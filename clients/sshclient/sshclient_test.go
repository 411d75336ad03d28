package sshclient

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// testServer is a minimal in-process SSH server that understands "exec"
// requests for a fixed set of commands.
type testServer struct {
	addr    string
	hostKey ssh.PublicKey
	keyFile string
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	require.NoError(t, err)

	clientPub, clientPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	authorized, err := ssh.NewPublicKey(clientPub)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(clientPriv, "")
	require.NoError(t, err)
	keyFile := filepath.Join(dir, "id_ed25519")
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(block), 0600))

	serverConfig := &ssh.ServerConfig{
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), authorized.Marshal()) {
				return nil, nil
			}
			return nil, errors.New("unauthorized key")
		},
	}
	serverConfig.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, serverConfig)
		}
	}()

	return &testServer{
		addr:    ln.Addr().String(),
		hostKey: hostSigner.PublicKey(),
		keyFile: keyFile,
	}
}

func serveConn(conn net.Conn, config *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "only sessions")
			continue
		}
		ch, requests, err := newChan.Accept()
		if err != nil {
			continue
		}
		go serveSession(ch, requests)
	}
}

func serveSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	stop := make(chan struct{})
	defer ch.Close()
	defer close(stop)

	for req := range requests {
		if req.Type != "exec" {
			if req.WantReply {
				req.Reply(false, nil)
			}
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			req.Reply(false, nil)
			continue
		}
		req.Reply(true, nil)
		go execute(payload.Command, ch, stop)
	}
}

func execute(command string, ch ssh.Channel, stop <-chan struct{}) {
	var status uint32
	switch command {
	case "echo hello":
		fmt.Fprintln(ch, "hello")
	case "fail":
		fmt.Fprintln(ch.Stderr(), "boom")
		status = 3
	case "sleep":
		<-stop
		return
	default:
		status = 127
	}
	ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
	ch.Close()
}

func TestRun(t *testing.T) {
	srv := startServer(t)

	client, err := Dial(context.Background(), Config{Host: srv.addr, User: "ci", KeyFile: srv.keyFile})
	require.NoError(t, err)
	defer client.Close()

	var stdout, stderr bytes.Buffer
	require.NoError(t, client.Run(context.Background(), "echo hello", &stdout, &stderr))
	assert.Equal(t, "hello\n", stdout.String())
	assert.Empty(t, stderr.String())

	// The connection is reused for a second session.
	stdout.Reset()
	err = client.Run(context.Background(), "fail", &stdout, &stderr)
	var exitErr *ssh.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitStatus())
	assert.Equal(t, "boom\n", stderr.String())
}

func TestRunCancelled(t *testing.T) {
	srv := startServer(t)

	client, err := Dial(context.Background(), Config{Host: srv.addr, User: "ci", KeyFile: srv.keyFile})
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = client.Run(ctx, "sleep", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDialKnownHosts(t *testing.T) {
	srv := startServer(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize(srv.addr)}, srv.hostKey)
	require.NoError(t, os.WriteFile(good, []byte(line+"\n"), 0600))

	client, err := Dial(context.Background(), Config{
		Host:           srv.addr,
		User:           "ci",
		KeyFile:        srv.keyFile,
		KnownHostsFile: good,
	})
	require.NoError(t, err)
	client.Close()

	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherKey, err := ssh.NewPublicKey(otherPub)
	require.NoError(t, err)
	bad := filepath.Join(dir, "known_hosts_bad")
	line = knownhosts.Line([]string{knownhosts.Normalize(srv.addr)}, otherKey)
	require.NoError(t, os.WriteFile(bad, []byte(line+"\n"), 0600))

	_, err = Dial(context.Background(), Config{
		Host:           srv.addr,
		User:           "ci",
		KeyFile:        srv.keyFile,
		KnownHostsFile: bad,
	})
	var keyErr *knownhosts.KeyError
	assert.ErrorAs(t, err, &keyErr)
}

func TestDialErrors(t *testing.T) {
	srv := startServer(t)
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0600))

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing key file",
			cfg:     Config{Host: srv.addr, KeyFile: filepath.Join(dir, "nope")},
			wantErr: "failed to read private key",
		},
		{
			name:    "unparseable key",
			cfg:     Config{Host: srv.addr, KeyFile: garbage},
			wantErr: "failed to parse private key",
		},
		{
			name:    "missing known hosts",
			cfg:     Config{Host: srv.addr, KeyFile: srv.keyFile, KnownHostsFile: filepath.Join(dir, "nope")},
			wantErr: "failed to load known hosts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Dial(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHostPort(t *testing.T) {
	assert.Equal(t, "nas:22", hostPort("nas"))
	assert.Equal(t, "nas:2222", hostPort("nas:2222"))
	assert.Equal(t, "[::1]:22", hostPort("::1"))
}
