package nameserver

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/pkg/acl"
	"github.com/scriptoria/scriptoria/pkg/config"
	"github.com/scriptoria/scriptoria/pkg/storageserver"
	"github.com/scriptoria/scriptoria/pkg/wire"
)

// testCluster wires one name node and one storage node together over
// real TCP loopback listeners, the way a deployed scriptoria cluster
// talks to itself. Heartbeat cadence is shortened so S6-style liveness
// scenarios run in test time instead of the production 5s/15s windows.
type testCluster struct {
	t          *testing.T
	ns         *Server
	clientAddr string
}

func newTestCluster(t *testing.T) *testCluster {
	t.Helper()
	log, err := logger.New(logger.Config{Output: "stderr"})
	require.NoError(t, err)

	cfg := config.NameServerConfig{
		HeartbeatWindow: 50 * time.Millisecond,
		LivenessTimeout: 200 * time.Millisecond,
		StreamWordDelay: time.Millisecond,
		ExecEnabled:     false,
	}
	ns := New(cfg, log, nil, nil, acl.New())

	clientLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	controlLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = ns.Serve(ctx, clientLn, controlLn) }()

	cc := &testCluster{t: t, ns: ns, clientAddr: clientLn.Addr().String()}
	cc.addStorageNode(controlLn.Addr().String())
	return cc
}

// addStorageNode boots a real storage node pointed at the cluster's
// name node and waits for it to finish registering.
func (c *testCluster) addStorageNode(controlAddr string) *storageserver.Server {
	t := c.t
	t.Helper()
	log, err := logger.New(logger.Config{Output: "stderr"})
	require.NoError(t, err)

	host, portStr, err := net.SplitHostPort(controlAddr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, clientPortStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	clientPort, err := strconv.Atoi(clientPortStr)
	require.NoError(t, err)

	scfg := config.StorageServerConfig{
		Address:           "127.0.0.1",
		ClientPort:        clientPort,
		StorageDir:        t.TempDir(),
		NameServerAddress: host,
		NameServerPort:    port,
		StreamWordDelay:   time.Millisecond,
		Limits: config.LimitsConfig{
			MaxSentenceChars: 2048,
			MaxWordChars:     256,
			MaxDocumentSize:  16 * 1024,
		},
	}
	ss := storageserver.New(scfg, log, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = ss.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return ss.Ready() }, time.Second, time.Millisecond)
	return ss
}

// dialClient opens a fresh connection to the name node and completes
// the INIT handshake.
func (c *testCluster) dialClient(t *testing.T, user string) *wire.Conn {
	t.Helper()
	raw, err := net.Dial("tcp", c.clientAddr)
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	conn := wire.NewConn(raw)

	require.NoError(t, conn.WriteFrame(wire.ClientTimeout, wire.Join(wire.VerbInit, user)))
	reply, err := conn.ReadFrame(wire.ClientTimeout)
	require.NoError(t, err)
	require.Equal(t, wire.RespSuccess, wire.Split(reply)[0])
	return conn
}

func sendRecv(t *testing.T, conn *wire.Conn, frame string) string {
	t.Helper()
	require.NoError(t, conn.WriteFrame(wire.ClientTimeout, frame))
	reply, err := conn.ReadFrame(wire.ClientTimeout)
	require.NoError(t, err)
	return reply
}

func readMultiframe(t *testing.T, conn *wire.Conn) []string {
	t.Helper()
	header, err := conn.ReadFrame(wire.ClientTimeout)
	require.NoError(t, err)
	require.Equal(t, wire.RespSuccess, wire.Split(header)[0])
	var lines []string
	for {
		line, err := conn.ReadFrame(wire.ClientTimeout)
		require.NoError(t, err)
		if line == wire.Stop {
			return lines
		}
		lines = append(lines, line)
	}
}

// TestCreateReadRoundTrip creates a file, gets redirected to its
// primary, and reads it back empty.
func TestCreateReadRoundTrip(t *testing.T) {
	c := newTestCluster(t)
	alice := c.dialClient(t, "alice")

	reply := sendRecv(t, alice, wire.Join(wire.VerbCreate, "notes.txt"))
	require.Equal(t, wire.RespSuccess, wire.Split(reply)[0])

	reply = sendRecv(t, alice, wire.Join(wire.VerbRead, "notes.txt"))
	fields := wire.Split(reply)
	require.Equal(t, wire.RespRedirect, fields[0])

	storageAddr := net.JoinHostPort(fields[1], fields[2])
	raw, err := net.Dial("tcp", storageAddr)
	require.NoError(t, err)
	defer raw.Close()
	storageConn := wire.NewConn(raw)

	require.NoError(t, storageConn.WriteFrame(wire.ClientTimeout, wire.Join(wire.VerbRead, "notes.txt")))
	lines := readMultiframe(t, storageConn)
	require.Empty(t, lines)
}

// TestBasicWrite writes one sentence through the redirect, then reads
// it back.
func TestBasicWrite(t *testing.T) {
	c := newTestCluster(t)
	alice := c.dialClient(t, "alice")

	sendRecv(t, alice, wire.Join(wire.VerbCreate, "notes.txt"))

	reply := sendRecv(t, alice, wire.Join(wire.VerbWrite, "notes.txt"))
	fields := wire.Split(reply)
	require.Equal(t, wire.RespRedirect, fields[0])
	storageAddr := net.JoinHostPort(fields[1], fields[2])

	raw, err := net.Dial("tcp", storageAddr)
	require.NoError(t, err)
	defer raw.Close()
	storageConn := wire.NewConn(raw)

	reply = sendRecv(t, storageConn, wire.Join(wire.VerbWrite, "notes.txt", "0", "alice"))
	require.Equal(t, wire.RespSuccess, wire.Split(reply)[0])
	reply = sendRecv(t, storageConn, "0|Hello world.")
	require.Equal(t, wire.Success("Word updated"), reply)
	reply = sendRecv(t, storageConn, wire.VerbEtirw)
	require.Equal(t, wire.Success(""), reply)

	require.NoError(t, storageConn.WriteFrame(wire.ClientTimeout, wire.Join(wire.VerbRead, "notes.txt")))
	lines := readMultiframe(t, storageConn)
	require.Equal(t, []string{"[0] Hello world."}, lines)
}

// TestOwnerOnlyDelete checks that a non-owner's DELETE is refused, the
// owner's succeeds, and the file disappears.
func TestOwnerOnlyDelete(t *testing.T) {
	c := newTestCluster(t)
	alice := c.dialClient(t, "alice")
	carol := c.dialClient(t, "carol")

	sendRecv(t, alice, wire.Join(wire.VerbCreate, "notes.txt"))

	reply := sendRecv(t, carol, wire.Join(wire.VerbDelete, "notes.txt"))
	require.Equal(t, wire.Errorf("Only owner can delete"), reply)

	reply = sendRecv(t, alice, wire.Join(wire.VerbDelete, "notes.txt"))
	require.Equal(t, wire.Success("File deleted successfully!"), reply)

	reply = sendRecv(t, alice, wire.Join(wire.VerbRead, "notes.txt"))
	require.Equal(t, wire.RespError, wire.Split(reply)[0])
}

// TestViewFiltersByAccess exercises the VIEW command's ACL-based
// filtering: without -a a caller only sees files it can at least read.
func TestViewFiltersByAccess(t *testing.T) {
	c := newTestCluster(t)
	alice := c.dialClient(t, "alice")
	bob := c.dialClient(t, "bob")

	sendRecv(t, alice, wire.Join(wire.VerbCreate, "alice-only.txt"))

	require.NoError(t, bob.WriteFrame(wire.ClientTimeout, wire.VerbView))
	bobLines := readMultiframe(t, bob)
	require.Empty(t, bobLines)

	require.NoError(t, alice.WriteFrame(wire.ClientTimeout, wire.VerbView))
	aliceLines := readMultiframe(t, alice)
	require.Contains(t, aliceLines, "--> alice-only.txt")

	sendRecv(t, alice, wire.Join(wire.VerbAddAccess, "-R", "alice-only.txt", "bob"))
	require.NoError(t, bob.WriteFrame(wire.ClientTimeout, wire.VerbView))
	bobLines = readMultiframe(t, bob)
	require.Contains(t, bobLines, "--> alice-only.txt")
}

// TestAddAccessGrantsWriteThenRemAccessRevokes exercises ADDACCESS/
// REMACCESS end to end through the redirect-based WRITE path.
func TestAddAccessGrantsWriteThenRemAccessRevokes(t *testing.T) {
	c := newTestCluster(t)
	alice := c.dialClient(t, "alice")
	bob := c.dialClient(t, "bob")

	sendRecv(t, alice, wire.Join(wire.VerbCreate, "shared.txt"))

	reply := sendRecv(t, bob, wire.Join(wire.VerbWrite, "shared.txt"))
	require.Equal(t, wire.RespError, wire.Split(reply)[0])

	reply = sendRecv(t, alice, wire.Join(wire.VerbAddAccess, "-W", "shared.txt", "bob"))
	require.Equal(t, wire.Success("Access granted"), reply)

	reply = sendRecv(t, bob, wire.Join(wire.VerbWrite, "shared.txt"))
	require.Equal(t, wire.RespRedirect, wire.Split(reply)[0])

	reply = sendRecv(t, alice, wire.Join(wire.VerbRemAccess, "shared.txt", "bob"))
	require.Equal(t, wire.Success("Access revoked"), reply)

	reply = sendRecv(t, bob, wire.Join(wire.VerbWrite, "shared.txt"))
	require.Equal(t, wire.RespError, wire.Split(reply)[0])
}

// TestListReportsActiveSessions exercises LIST.
func TestListReportsActiveSessions(t *testing.T) {
	c := newTestCluster(t)
	alice := c.dialClient(t, "alice")
	c.dialClient(t, "bob")

	require.NoError(t, alice.WriteFrame(wire.ClientTimeout, wire.VerbList))
	lines := readMultiframe(t, alice)
	require.ElementsMatch(t, []string{"alice", "bob"}, lines)
}

// TestDuplicateUsernameRejected ensures a second INIT with an
// already-connected username is refused rather than silently replacing
// the first session.
func TestDuplicateUsernameRejected(t *testing.T) {
	c := newTestCluster(t)
	c.dialClient(t, "alice")

	raw, err := net.Dial("tcp", c.clientAddr)
	require.NoError(t, err)
	defer raw.Close()
	conn := wire.NewConn(raw)
	require.NoError(t, conn.WriteFrame(wire.ClientTimeout, wire.Join(wire.VerbInit, "alice")))
	reply, err := conn.ReadFrame(wire.ClientTimeout)
	require.NoError(t, err)
	require.Equal(t, wire.RespError, wire.Split(reply)[0])
}

// TestStorageNodeFailureDropsRouting checks that when a storage node's
// control connection disappears, the liveness monitor drops its
// membership and routing entries within the configured timeout, so
// READ of a file it held returns not-found and
// CREATE fails with no live node left to place on.
func TestStorageNodeFailureDropsRouting(t *testing.T) {
	c := newTestCluster(t)
	alice := c.dialClient(t, "alice")

	sendRecv(t, alice, wire.Join(wire.VerbCreate, "notes.txt"))
	require.Equal(t, 1, c.ns.membership.Len())

	// Simulate the storage node vanishing by dropping every control
	// connection the name node is holding.
	c.ns.nodeConnMu.Lock()
	for _, nc := range c.ns.nodeConns {
		_ = nc.conn.Close()
	}
	c.ns.nodeConnMu.Unlock()

	require.Eventually(t, func() bool {
		return c.ns.membership.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	reply := sendRecv(t, alice, wire.Join(wire.VerbRead, "notes.txt"))
	require.Equal(t, wire.RespError, wire.Split(reply)[0])

	reply = sendRecv(t, alice, wire.Join(wire.VerbCreate, "new.txt"))
	require.Equal(t, wire.RespError, wire.Split(reply)[0]) // no live node left to place on
}
