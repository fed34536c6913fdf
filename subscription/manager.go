package subscription

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"cryptics.app/cryptics-client/api"
	"cryptics.app/cryptics-client/config"
	"cryptics.app/cryptics-client/helpers"
	"cryptics.app/cryptics-client/internal"
	"cryptics.app/cryptics-client/model"
	"cryptics.app/cryptics-client/summarytopic"
)

const (
	defaultDebounce         = 200 * time.Millisecond
	defaultFlushInterval    = 400 * time.Millisecond
	defaultSnapshotCooldown = 5 * time.Second
	snapshotTimeout         = 10 * time.Second
)

type observer struct {
	symbol  string
	visible bool
}

type SnapshotOptions struct {
	Force         bool
	IncludeKlines bool
}

type replaceMessage struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols"`
}

type feedFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Manager keeps exactly one websocket feed open for the union of every
// visible observer's symbol and the explicitly pinned extras. Observer churn
// is debounced, and the symbol set is renegotiated over the open socket with
// a replace message instead of tearing the connection down. Incoming partial
// summaries are merged into a per-symbol cache and flushed to the topic on a
// fixed cadence so a hot market can't flood the consumers.
type Manager struct {
	api   *api.Client
	topic *summarytopic.SummaryTopic
	opts  config.FeedOptions
	log   *slog.Logger

	mu            sync.Mutex
	observers     map[string]*observer
	extra         map[string]struct{}
	cache         map[string]*model.Summary
	dirty         map[string]struct{}
	lastSnapshot  map[string]time.Time
	ws            *internal.WebSocketClient
	wsSymbols     []string
	dialSymbols   []string
	debounceTimer *time.Timer
	closed        bool

	ticks atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(apiClient *api.Client, topic *summarytopic.SummaryTopic, options config.FeedOptions) *Manager {
	if options.Debounce <= 0 {
		options.Debounce = defaultDebounce
	}
	if options.FlushInterval <= 0 {
		options.FlushInterval = defaultFlushInterval
	}
	if options.SnapshotCooldown <= 0 {
		options.SnapshotCooldown = defaultSnapshotCooldown
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		api:          apiClient,
		topic:        topic,
		opts:         options,
		log:          slog.Default().With(slog.String("component", "subscription")),
		observers:    map[string]*observer{},
		extra:        map[string]struct{}{},
		cache:        map[string]*model.Summary{},
		dirty:        map[string]struct{}{},
		lastSnapshot: map[string]time.Time{},
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (m *Manager) Start() {
	m.wg.Add(1)
	go m.flushLoop()
}

func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
		m.debounceTimer = nil
	}
	ws := m.ws
	m.ws = nil
	m.wsSymbols = nil
	m.mu.Unlock()

	if ws != nil {
		ws.Close()
	}
	m.cancel()
	m.wg.Wait()
}

// Observe registers a handle interested in a symbol. The handle starts out
// visible; SetVisible toggles it when the observer scrolls out of view.
func (m *Manager) Observe(handle, symbol string) {
	symbol = model.NormalizeSymbol(symbol)
	if handle == "" || symbol == "" {
		return
	}
	m.mu.Lock()
	m.observers[handle] = &observer{symbol: symbol, visible: true}
	m.mu.Unlock()
	m.scheduleReconcile()
}

func (m *Manager) Unobserve(handle string) {
	m.mu.Lock()
	_, existed := m.observers[handle]
	delete(m.observers, handle)
	m.mu.Unlock()
	if existed {
		m.scheduleReconcile()
	}
}

func (m *Manager) SetVisible(handle string, visible bool) {
	m.mu.Lock()
	obs, ok := m.observers[handle]
	changed := ok && obs.visible != visible
	if changed {
		obs.visible = visible
	}
	m.mu.Unlock()
	if changed {
		m.scheduleReconcile()
	}
}

// AddExtraSymbol pins a symbol into the feed regardless of observer
// visibility.
func (m *Manager) AddExtraSymbol(symbol string) {
	symbol = model.NormalizeSymbol(symbol)
	if symbol == "" {
		return
	}
	m.mu.Lock()
	_, existed := m.extra[symbol]
	m.extra[symbol] = struct{}{}
	m.mu.Unlock()
	if !existed {
		m.scheduleReconcile()
	}
}

func (m *Manager) RemoveExtraSymbol(symbol string) {
	symbol = model.NormalizeSymbol(symbol)
	m.mu.Lock()
	_, existed := m.extra[symbol]
	delete(m.extra, symbol)
	m.mu.Unlock()
	if existed {
		m.scheduleReconcile()
	}
}

func (m *Manager) ExtraSymbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.extra))
	for s := range m.extra {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ActiveSymbols is the current reconciliation target: every visible
// observer's symbol plus the pinned extras.
func (m *Manager) ActiveSymbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computeTargetLocked()
}

// GetLatest returns a copy of the merged cache entry for a symbol, or nil if
// nothing has been received for it.
func (m *Manager) GetLatest(symbol string) *model.Summary {
	symbol = model.NormalizeSymbol(symbol)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache[symbol].Clone()
}

// Ticks counts flush rounds that actually published updates.
func (m *Manager) Ticks() uint64 {
	return m.ticks.Load()
}

func (m *Manager) computeTargetLocked() []string {
	visible := make([]string, 0, len(m.observers))
	for _, obs := range m.observers {
		if obs.visible {
			visible = append(visible, obs.symbol)
		}
	}
	extras := make([]string, 0, len(m.extra))
	for s := range m.extra {
		extras = append(extras, s)
	}
	target := helpers.UnionStrings(visible, extras)
	sort.Strings(target)
	return target
}

// scheduleReconcile coalesces bursts of observer churn into a single
// renegotiation after the debounce window goes quiet.
func (m *Manager) scheduleReconcile() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.AfterFunc(m.opts.Debounce, m.reconcile)
}

func (m *Manager) reconcile() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	target := m.computeTargetLocked()
	ws := m.ws
	current := m.wsSymbols

	if helpers.SameStringSet(target, current) && (ws != nil) == (len(target) > 0) {
		m.mu.Unlock()
		return
	}

	if len(target) == 0 {
		m.ws = nil
		m.wsSymbols = nil
		m.dialSymbols = nil
		m.mu.Unlock()
		if ws != nil {
			m.log.Info("no symbols left, closing feed")
			ws.Close()
		}
		return
	}

	if ws == nil {
		client := m.newFeedClient(target)
		m.ws = client
		m.wsSymbols = target
		m.dialSymbols = target
		m.mu.Unlock()
		m.log.Info("opening feed", "symbols", target)
		client.Start()
		m.snapshotAsync(target)
		return
	}

	added := subtractStrings(target, current)
	m.dialSymbols = target
	ws.SetEndpoint(m.feedEndpoint(target))
	m.mu.Unlock()

	// While a dial is in flight the message sits in the client's send
	// buffer and the write pump flushes it as soon as the socket opens.
	m.log.Debug("renegotiating feed", "symbols", target)
	if err := ws.SendMessageJSON(websocket.TextMessage, replaceMessage{Action: "replace", Symbols: target}); err != nil {
		m.log.Error("failed to send replace message", "error", err)
		m.scheduleReconcile()
		return
	}

	m.mu.Lock()
	m.wsSymbols = target
	m.mu.Unlock()
	if len(added) > 0 {
		m.snapshotAsync(added)
	}
}

func (m *Manager) feedEndpoint(symbols []string) string {
	return m.api.BaseURL(true) + "/market/ws/summaries?symbols=" + model.JoinSymbolsQuery(symbols)
}

func (m *Manager) newFeedClient(symbols []string) *internal.WebSocketClient {
	client := internal.NewWebSocketClient(m.feedEndpoint(symbols))
	client.SetLogger(m.log)
	client.SetReconnectDelay(m.opts.ReconnectDelay)
	client.SetMessageHandler(func(msg internal.WsMessage) {
		m.handleFrame(msg.Message)
	})
	client.SetOnConnect(func() error {
		// observer churn while the dial was in flight means the URL the
		// server saw is already stale, renegotiate immediately
		m.mu.Lock()
		target := m.computeTargetLocked()
		dialed := m.dialSymbols
		m.wsSymbols = target
		m.mu.Unlock()
		if len(target) > 0 && !helpers.SameStringSet(target, dialed) {
			return client.SendMessageJSON(websocket.TextMessage, replaceMessage{Action: "replace", Symbols: target})
		}
		return nil
	})
	return client
}

// handleFrame decodes one feed message. Anything that does not look like a
// summary or batch frame is dropped without taking the connection down.
func (m *Manager) handleFrame(data []byte) {
	var frame feedFrame
	if err := sonic.Unmarshal(data, &frame); err != nil {
		m.log.Debug("dropping malformed frame", "error", err)
		return
	}

	switch frame.Type {
	case "summary":
		var s model.Summary
		if err := sonic.Unmarshal(frame.Data, &s); err != nil {
			m.log.Debug("dropping malformed summary", "error", err)
			return
		}
		m.mergeUpdate(&s)
	case "batch":
		var batch []*model.Summary
		if err := sonic.Unmarshal(frame.Data, &batch); err != nil {
			m.log.Debug("dropping malformed batch", "error", err)
			return
		}
		for _, s := range batch {
			m.mergeUpdate(s)
		}
	default:
		m.log.Debug("dropping frame of unknown type", "type", frame.Type)
	}
}

func (m *Manager) mergeUpdate(update *model.Summary) {
	if update == nil {
		return
	}
	symbol := model.NormalizeSymbol(update.Symbol)
	if symbol == "" {
		return
	}
	update.Symbol = symbol

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cache[symbol]; ok {
		existing.Merge(update)
	} else {
		m.cache[symbol] = update
	}
	m.dirty[symbol] = struct{}{}
}

// FetchSnapshot pulls the REST summaries for the given symbols and merges
// them into the cache. Each symbol is rate limited by the snapshot cooldown
// unless Force is set.
func (m *Manager) FetchSnapshot(ctx context.Context, symbols []string, options SnapshotOptions) error {
	symbols = model.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return nil
	}

	now := time.Now()
	m.mu.Lock()
	due := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if !options.Force && now.Sub(m.lastSnapshot[s]) < m.opts.SnapshotCooldown {
			continue
		}
		m.lastSnapshot[s] = now
		due = append(due, s)
	}
	m.mu.Unlock()
	if len(due) == 0 {
		return nil
	}

	summaries, err := m.api.Summaries(ctx, due, api.SummariesOptions{
		IncludeKlines: options.IncludeKlines,
		KlineInterval: m.opts.KlineInterval,
		KlineLimit:    m.opts.KlineLimit,
	})
	if err != nil {
		// leave the cooldown untouched so the next cycle retries
		m.mu.Lock()
		for _, s := range due {
			delete(m.lastSnapshot, s)
		}
		m.mu.Unlock()
		return err
	}
	for _, s := range summaries {
		m.mergeUpdate(s)
	}
	return nil
}

func (m *Manager) snapshotAsync(symbols []string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(m.ctx, snapshotTimeout)
		defer cancel()
		if err := m.FetchSnapshot(ctx, symbols, SnapshotOptions{IncludeKlines: true}); err != nil {
			m.log.Warn("snapshot fetch failed", "symbols", symbols, "error", err)
		}
	}()
}

// flushLoop publishes the merged state of every symbol touched since the
// previous round, keeping downstream consumers at a bounded update rate no
// matter how fast the feed ticks.
func (m *Manager) flushLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.flush()
		}
	}
}

func (m *Manager) flush() {
	m.mu.Lock()
	if len(m.dirty) == 0 {
		m.mu.Unlock()
		return
	}
	updates := make([]*model.Summary, 0, len(m.dirty))
	for symbol := range m.dirty {
		if s := m.cache[symbol]; s != nil {
			updates = append(updates, s.Clone())
		}
	}
	m.dirty = map[string]struct{}{}
	m.mu.Unlock()

	for _, s := range updates {
		m.topic.Send(s)
	}
	m.ticks.Add(1)
}

func subtractStrings(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, s := range b {
		in[s] = struct{}{}
	}
	out := []string{}
	for _, s := range a {
		if _, ok := in[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
