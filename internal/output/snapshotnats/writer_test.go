package snapshotnats

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evedash/pkg/models"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Flush() error { return nil }

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNewWriterWithConnRequiresSubject(t *testing.T) {
	_, err := NewWriterWithConn(&fakeConn{}, "")
	assert.Error(t, err)
}

func TestWriteSnapshotPublishesJSON(t *testing.T) {
	conn := &fakeConn{}
	w, err := NewWriterWithConn(conn, "evedash.snapshots")
	require.NoError(t, err)

	require.NoError(t, w.WriteSnapshot(context.Background(), &models.Snapshot{ID: "n1"}))
	require.Len(t, conn.payloads, 1)
	assert.Equal(t, "evedash.snapshots", conn.subjects[0])

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(conn.payloads[0], &snap))
	assert.Equal(t, "n1", snap.ID)

	require.NoError(t, w.Close())
	assert.True(t, conn.drained)
}

func TestWriteSnapshotErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("connection closed")}
	w, err := NewWriterWithConn(conn, "s")
	require.NoError(t, err)

	err = w.WriteSnapshot(context.Background(), &models.Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection closed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.WriteSnapshot(ctx, &models.Snapshot{}), context.Canceled)
}

func TestConfigDefaultsReconnectForever(t *testing.T) {
	cfg := Config{Subject: "s"}.withDefaults()
	assert.Equal(t, -1, cfg.MaxReconnects)
	assert.Equal(t, nats.DefaultURL, cfg.URL)
	assert.Equal(t, 2*time.Second, cfg.ReconnectWait)

	cfg = Config{MaxReconnects: 5}.withDefaults()
	assert.Equal(t, 5, cfg.MaxReconnects)
}

func TestWriterReconnectsAfterServerRestart(t *testing.T) {
	ns, url := startTestNATSServer(t)

	w, err := NewWriter(Config{URL: url, Subject: "evedash.snapshots", ReconnectWait: 50 * time.Millisecond})
	require.NoError(t, err)
	conn := w.conn.(*nats.Conn)

	port := ns.Addr().(*net.TCPAddr).Port
	ns.Shutdown()
	ns.WaitForShutdown()

	restarted, err := server.NewServer(&server.Options{Port: port})
	require.NoError(t, err)
	go restarted.Start()
	defer restarted.Shutdown()
	require.True(t, restarted.ReadyForConnections(5*time.Second))

	require.Eventually(t, conn.IsConnected, 10*time.Second, 50*time.Millisecond)
	assert.NoError(t, w.WriteSnapshot(context.Background(), &models.Snapshot{ID: "after-restart"}))
	assert.NoError(t, w.Close())
}

func TestNewWriterUnreachable(t *testing.T) {
	_, err := NewWriter(Config{URL: "nats://127.0.0.1:1", Subject: "s"})
	assert.Error(t, err)
}

func startTestNATSServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Port: -1})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server failed to start")
	}
	return ns, ns.ClientURL()
}

func TestWriterAgainstServer(t *testing.T) {
	ns, url := startTestNATSServer(t)
	defer ns.Shutdown()

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()
	msgs := make(chan *nats.Msg, 1)
	_, err = sub.ChanSubscribe("evedash.snapshots", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	w, err := NewWriter(Config{URL: url, Subject: "evedash.snapshots"})
	require.NoError(t, err)
	require.NoError(t, w.WriteSnapshot(context.Background(), &models.Snapshot{ID: "live"}))
	require.NoError(t, w.Close())

	select {
	case msg := <-msgs:
		var snap models.Snapshot
		require.NoError(t, json.Unmarshal(msg.Data, &snap))
		assert.Equal(t, "live", snap.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot not delivered")
	}
}
