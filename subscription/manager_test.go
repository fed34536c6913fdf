package subscription

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptics.app/cryptics-client/api"
	"cryptics.app/cryptics-client/config"
	"cryptics.app/cryptics-client/helpers"
	"cryptics.app/cryptics-client/model"
	"cryptics.app/cryptics-client/summarytopic"
)

type feedServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu          sync.Mutex
	dials       int
	dialSymbols []string
	replaces    [][]string
	active      *websocket.Conn
	writeMu     sync.Mutex

	holdUpgrade    chan struct{}
	upgradeArrived chan struct{}

	summariesCalls atomic.Int64
	summarySymbols atomic.Value // string
	disconnects    atomic.Int64
}

func newFeedServer(t *testing.T) *feedServer {
	fs := &feedServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/market/summaries", func(w http.ResponseWriter, r *http.Request) {
		fs.summariesCalls.Add(1)
		fs.summarySymbols.Store(r.URL.Query().Get("symbols"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/market/ws/summaries", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		hold := fs.holdUpgrade
		arrived := fs.upgradeArrived
		fs.mu.Unlock()
		if arrived != nil {
			select {
			case arrived <- struct{}{}:
			default:
			}
		}
		if hold != nil {
			<-hold
		}

		conn, err := fs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		symbols := strings.Split(r.URL.Query().Get("symbols"), ",")
		fs.mu.Lock()
		fs.dials++
		fs.dialSymbols = symbols
		fs.active = conn
		fs.mu.Unlock()

		defer func() {
			fs.disconnects.Add(1)
			conn.Close()
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg struct {
				Action  string   `json:"action"`
				Symbols []string `json:"symbols"`
			}
			if sonic.Unmarshal(data, &msg) == nil && msg.Action == "replace" {
				fs.mu.Lock()
				fs.replaces = append(fs.replaces, msg.Symbols)
				fs.mu.Unlock()
			}
		}
	})

	fs.server = httptest.NewServer(mux)
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *feedServer) sendFrame(t *testing.T, frame string) {
	t.Helper()
	fs.mu.Lock()
	conn := fs.active
	fs.mu.Unlock()
	require.NotNil(t, conn, "no active feed connection")

	fs.writeMu.Lock()
	defer fs.writeMu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (fs *feedServer) closeActive() {
	fs.mu.Lock()
	conn := fs.active
	fs.active = nil
	fs.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// gateUpgrades makes the ws handler park incoming dials until release is
// called, keeping the client in its connecting phase. arrived signals that a
// dial reached the server.
func (fs *feedServer) gateUpgrades() (arrived chan struct{}, release func()) {
	hold := make(chan struct{})
	arrived = make(chan struct{}, 1)
	fs.mu.Lock()
	fs.holdUpgrade = hold
	fs.upgradeArrived = arrived
	fs.mu.Unlock()
	return arrived, func() {
		fs.mu.Lock()
		fs.holdUpgrade = nil
		fs.mu.Unlock()
		close(hold)
	}
}

func (fs *feedServer) dialCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.dials
}

func (fs *feedServer) lastDialSymbols() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.dialSymbols...)
}

func (fs *feedServer) replaceCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.replaces)
}

func (fs *feedServer) lastReplace() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.replaces) == 0 {
		return nil
	}
	return append([]string(nil), fs.replaces[len(fs.replaces)-1]...)
}

func testFeedOptions() config.FeedOptions {
	return config.FeedOptions{
		Debounce:         20 * time.Millisecond,
		FlushInterval:    20 * time.Millisecond,
		SnapshotCooldown: time.Minute,
		ReconnectDelay:   50 * time.Millisecond,
		KlineInterval:    "1m",
		KlineLimit:       48,
	}
}

func newTestManager(t *testing.T, fs *feedServer) (*Manager, *summarytopic.SummaryTopic) {
	client := api.NewClient(config.APIOptions{BaseURL: fs.server.URL, Timeout: 5 * time.Second}, nil)
	topic := summarytopic.NewSummaryTopic(64)
	m := NewManager(client, topic, testFeedOptions())
	m.Start()
	t.Cleanup(m.Close)
	return m, topic
}

func TestObserverChurnCoalescesIntoOneDial(t *testing.T) {
	fs := newFeedServer(t)
	m, _ := newTestManager(t, fs)

	m.Observe("card-1", "btc/usdt")
	m.Observe("card-2", "ETH-USDT")
	m.Observe("card-3", "solusdt")
	m.Unobserve("card-3")

	require.Eventually(t, func() bool {
		return fs.dialCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, helpers.SameStringSet([]string{"BTCUSDT", "ETHUSDT"}, fs.lastDialSymbols()),
		"dial should carry the settled symbol set, got %v", fs.lastDialSymbols())

	// the settled set must not trigger further dials
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, fs.dialCount())
}

func TestSymbolChangeRenegotiatesOverOpenSocket(t *testing.T) {
	fs := newFeedServer(t)
	m, _ := newTestManager(t, fs)

	m.Observe("card-1", "BTCUSDT")
	require.Eventually(t, func() bool { return fs.dialCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	m.AddExtraSymbol("ethusdt")
	require.Eventually(t, func() bool { return fs.replaceCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	assert.True(t, helpers.SameStringSet([]string{"BTCUSDT", "ETHUSDT"}, fs.lastReplace()))
	assert.Equal(t, 1, fs.dialCount(), "renegotiation must reuse the open socket")
}

func TestChurnDuringDialIsRenegotiatedOnOpen(t *testing.T) {
	fs := newFeedServer(t)
	arrived, release := fs.gateUpgrades()
	m, _ := newTestManager(t, fs)

	m.AddExtraSymbol("BTCUSDT")
	select {
	case <-arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("dial never reached the server")
	}

	// the dial is parked pre-upgrade, so this churn cannot go over the
	// socket yet and has to wait for the open event
	m.AddExtraSymbol("ETHUSDT")
	time.Sleep(100 * time.Millisecond)
	release()

	require.Eventually(t, func() bool { return fs.replaceCount() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, helpers.SameStringSet([]string{"BTCUSDT", "ETHUSDT"}, fs.lastReplace()),
		"the set negotiated at open must include churn from the dial window, got %v", fs.lastReplace())
	assert.Equal(t, []string{"BTCUSDT"}, fs.lastDialSymbols(), "the dial itself carried the pre-churn set")
	assert.Equal(t, 1, fs.dialCount())
}

func TestChurnWhileSocketDownReachesServer(t *testing.T) {
	fs := newFeedServer(t)
	m, _ := newTestManager(t, fs)

	m.AddExtraSymbol("BTCUSDT")
	require.Eventually(t, func() bool { return fs.dialCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	fs.closeActive()
	m.AddExtraSymbol("ETHUSDT")

	// the new set must arrive without any further observer churn, either
	// on the redial URL or as a replay of the queued replace
	require.Eventually(t, func() bool {
		if helpers.SameStringSet([]string{"BTCUSDT", "ETHUSDT"}, fs.lastDialSymbols()) {
			return true
		}
		return helpers.SameStringSet([]string{"BTCUSDT", "ETHUSDT"}, fs.lastReplace())
	}, 3*time.Second, 10*time.Millisecond)
}

func TestEmptyTargetClosesFeed(t *testing.T) {
	fs := newFeedServer(t)
	m, _ := newTestManager(t, fs)

	m.Observe("card-1", "BTCUSDT")
	require.Eventually(t, func() bool { return fs.dialCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	m.Unobserve("card-1")
	require.Eventually(t, func() bool { return fs.disconnects.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, fs.dialCount(), "closed feed must not redial while empty")
	assert.Empty(t, m.ActiveSymbols())
}

func TestHiddenObserverLeavesTarget(t *testing.T) {
	fs := newFeedServer(t)
	m, _ := newTestManager(t, fs)

	m.Observe("card-1", "BTCUSDT")
	m.Observe("card-2", "ETHUSDT")
	m.SetVisible("card-2", false)

	require.Eventually(t, func() bool { return fs.dialCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"BTCUSDT"}, m.ActiveSymbols())

	m.SetVisible("card-2", true)
	require.Eventually(t, func() bool { return fs.replaceCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, m.ActiveSymbols())
}

func TestBatchThenSummaryMerges(t *testing.T) {
	fs := newFeedServer(t)
	m, _ := newTestManager(t, fs)

	m.Observe("card-1", "BTCUSDT")
	require.Eventually(t, func() bool { return fs.dialCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	fs.sendFrame(t, `{"type":"batch","data":[{"symbol":"BTCUSDT","last_price":50000,"volume":123.5,"high_price":51000}]}`)
	require.Eventually(t, func() bool { return m.GetLatest("BTCUSDT") != nil }, 2*time.Second, 10*time.Millisecond)

	fs.sendFrame(t, `{"type":"summary","data":{"symbol":"BTCUSDT","last_price":50100}}`)
	require.Eventually(t, func() bool {
		s := m.GetLatest("BTCUSDT")
		return s != nil && s.LastPrice != nil && *s.LastPrice == 50100
	}, 2*time.Second, 10*time.Millisecond)

	s := m.GetLatest("BTCUSDT")
	require.NotNil(t, s.Volume)
	assert.Equal(t, 123.5, *s.Volume, "fields absent from the later update must persist")
	require.NotNil(t, s.HighPrice)
	assert.Equal(t, 51000.0, *s.HighPrice)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	fs := newFeedServer(t)
	m, _ := newTestManager(t, fs)

	m.Observe("card-1", "BTCUSDT")
	require.Eventually(t, func() bool { return fs.dialCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	fs.sendFrame(t, `this is not json`)
	fs.sendFrame(t, `{"type":"boom","data":{}}`)
	fs.sendFrame(t, `{"type":"summary","data":{"last_price":1}}`)
	fs.sendFrame(t, `{"type":"summary","data":{"symbol":"BTCUSDT","last_price":42}}`)

	require.Eventually(t, func() bool {
		s := m.GetLatest("BTCUSDT")
		return s != nil && s.LastPrice != nil && *s.LastPrice == 42
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, fs.dialCount(), "bad frames must not take the connection down")
}

func TestFlushPublishesToTopic(t *testing.T) {
	fs := newFeedServer(t)
	m, topic := newTestManager(t, fs)

	listener := topic.Listen()
	defer listener.Discard()

	m.Observe("card-1", "BTCUSDT")
	require.Eventually(t, func() bool { return fs.dialCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	fs.sendFrame(t, `{"type":"summary","data":{"symbol":"BTCUSDT","last_price":50000}}`)

	select {
	case v := <-listener.Channel():
		s := v.(*model.Summary)
		assert.Equal(t, "BTCUSDT", s.Symbol)
	case <-time.After(2 * time.Second):
		t.Fatal("flush never published to the topic")
	}
	assert.GreaterOrEqual(t, m.Ticks(), uint64(1))
}

func TestSnapshotCooldown(t *testing.T) {
	fs := newFeedServer(t)
	client := api.NewClient(config.APIOptions{BaseURL: fs.server.URL, Timeout: 5 * time.Second}, nil)
	m := NewManager(client, summarytopic.NewSummaryTopic(8), testFeedOptions())
	t.Cleanup(m.Close)

	ctx := context.Background()
	require.NoError(t, m.FetchSnapshot(ctx, []string{"BTCUSDT"}, SnapshotOptions{}))
	assert.Equal(t, int64(1), fs.summariesCalls.Load())

	// inside the cooldown window the fetch is a no-op
	require.NoError(t, m.FetchSnapshot(ctx, []string{"BTCUSDT"}, SnapshotOptions{}))
	assert.Equal(t, int64(1), fs.summariesCalls.Load())

	// force bypasses the cooldown
	require.NoError(t, m.FetchSnapshot(ctx, []string{"BTCUSDT"}, SnapshotOptions{Force: true}))
	assert.Equal(t, int64(2), fs.summariesCalls.Load())
}

func TestSnapshotOnlyFetchesDueSymbols(t *testing.T) {
	fs := newFeedServer(t)
	client := api.NewClient(config.APIOptions{BaseURL: fs.server.URL, Timeout: 5 * time.Second}, nil)
	m := NewManager(client, summarytopic.NewSummaryTopic(8), testFeedOptions())
	t.Cleanup(m.Close)

	ctx := context.Background()
	require.NoError(t, m.FetchSnapshot(ctx, []string{"BTCUSDT"}, SnapshotOptions{}))
	require.NoError(t, m.FetchSnapshot(ctx, []string{"BTCUSDT", "ETHUSDT"}, SnapshotOptions{}))

	assert.Equal(t, int64(2), fs.summariesCalls.Load())
	assert.Equal(t, "ETHUSDT", fs.summarySymbols.Load().(string))
}
