package rpcmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"strings"
	"sync"
	"time"

	"cryptics.app/cryptics-client/auth"
	"cryptics.app/cryptics-client/config"
	"cryptics.app/cryptics-client/helpers"
	"cryptics.app/cryptics-client/model"
	"cryptics.app/cryptics-client/subscription"
)

// RPC Arguments and Reply Structures
type SymbolArgs struct {
	Symbol string
}

type SymbolReply struct {
	Message string
}

type CurrentSymbolsReply struct {
	Active []string
	Pinned []string
}

type SnapshotArgs struct {
	Symbols []string
	Force   bool
}

type SnapshotReply struct {
	Message   string
	Summaries []*model.Summary
}

type AssetsArgs struct {
	Assets []string
}

type AssetReply struct {
	Message string
}

type StatusReply struct {
	SessionState  string
	User          string
	ActiveSymbols []string
	FlushRounds   uint64
}

type ShutdownReply struct {
	Message string
}

// RPCManager exposes runtime control over the feed: pinning symbols in and
// out of the subscription set, forcing snapshots and shutting the agent down.
type RPCManager struct {
	GlobalConfig  config.ConfigOptions
	Subscriptions *subscription.Manager
	Session       *auth.Session
	ShutdownCh    chan struct{}

	Mu sync.Mutex

	listener net.Listener
	stopOnce sync.Once
}

// Start registers the manager and begins accepting connections.
func (m *RPCManager) Start(options config.RPCOptions) error {
	if err := rpc.Register(m); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", options.Port))
	if err != nil {
		return err
	}
	m.listener = listener

	slog.Info("RPC control listening", "port", options.Port)
	go rpc.Accept(listener)
	return nil
}

func (m *RPCManager) Stop() {
	m.stopOnce.Do(func() {
		if m.listener != nil {
			m.listener.Close()
		}
	})
}

// PinSymbol keeps a symbol in the feed regardless of observers.
func (m *RPCManager) PinSymbol(args SymbolArgs, reply *SymbolReply) error {
	symbol := model.NormalizeSymbol(args.Symbol)
	if symbol == "" {
		return errors.New("no symbol given")
	}

	m.Subscriptions.AddExtraSymbol(symbol)
	reply.Message = fmt.Sprintf("Symbol '%s' pinned successfully", symbol)
	return nil
}

// UnpinSymbol removes a previously pinned symbol.
func (m *RPCManager) UnpinSymbol(args SymbolArgs, reply *SymbolReply) error {
	symbol := model.NormalizeSymbol(args.Symbol)
	if symbol == "" {
		return errors.New("no symbol given")
	}

	m.Subscriptions.RemoveExtraSymbol(symbol)
	reply.Message = fmt.Sprintf("Symbol '%s' unpinned successfully", symbol)
	return nil
}

// CurrentSymbols returns the live subscription target and the pinned subset.
func (m *RPCManager) CurrentSymbols(args struct{}, reply *CurrentSymbolsReply) error {
	reply.Active = m.Subscriptions.ActiveSymbols()
	reply.Pinned = m.Subscriptions.ExtraSymbols()
	return nil
}

// Snapshot fetches REST summaries for the given symbols (the active set when
// none are given) and returns the merged cache entries.
func (m *RPCManager) Snapshot(args SnapshotArgs, reply *SnapshotReply) error {
	symbols := model.NormalizeSymbols(args.Symbols)
	if len(symbols) == 0 {
		symbols = m.Subscriptions.ActiveSymbols()
	}
	if len(symbols) == 0 {
		return errors.New("no symbols to snapshot")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := m.Subscriptions.FetchSnapshot(ctx, symbols, subscription.SnapshotOptions{
		Force:         args.Force,
		IncludeKlines: true,
	}); err != nil {
		return err
	}

	for _, s := range symbols {
		if latest := m.Subscriptions.GetLatest(s); latest != nil {
			reply.Summaries = append(reply.Summaries, latest)
		}
	}
	reply.Message = fmt.Sprintf("Snapshot of %d symbols fetched", len(symbols))
	return nil
}

// AddAsset adds base assets to the configuration and pins their pairs.
func (m *RPCManager) AddAsset(args AssetsArgs, reply *AssetReply) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	quote := m.GlobalConfig.Assets.Quote
	if quote == "" {
		quote = "USDT"
	}

	for _, asset := range args.Assets {
		asset = strings.ToUpper(strings.TrimSpace(asset))
		if asset == "" {
			continue
		}
		if helpers.ItemInSlice(asset, m.GlobalConfig.Assets.Crypto) {
			return errors.New("asset already exists")
		}
		m.GlobalConfig.Assets.Crypto = append(m.GlobalConfig.Assets.Crypto, asset)
		m.Subscriptions.AddExtraSymbol(asset + quote)
	}

	msg := "Assets added successfully"
	slog.Info(msg, "assets", args.Assets)
	reply.Message = msg
	config.UpdateConfig(m.GlobalConfig, true)
	return nil
}

// RemoveAsset removes base assets from the configuration and unpins their
// pairs.
func (m *RPCManager) RemoveAsset(args AssetsArgs, reply *AssetReply) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	quote := m.GlobalConfig.Assets.Quote
	if quote == "" {
		quote = "USDT"
	}

	for _, asset := range args.Assets {
		asset = strings.ToUpper(strings.TrimSpace(asset))
		if !helpers.ItemInSlice(asset, m.GlobalConfig.Assets.Crypto) {
			return errors.New("asset to remove does not exist")
		}
		m.GlobalConfig.Assets.Crypto = helpers.RemoveFromSlice(m.GlobalConfig.Assets.Crypto, asset)
		m.Subscriptions.RemoveExtraSymbol(asset + quote)
	}

	msg := "Assets removed successfully"
	slog.Info(msg, "assets", args.Assets)
	reply.Message = msg
	config.UpdateConfig(m.GlobalConfig, true)
	return nil
}

// Status reports the session and feed state.
func (m *RPCManager) Status(args struct{}, reply *StatusReply) error {
	reply.SessionState = string(m.Session.State())
	if user := m.Session.CurrentUser(); user != nil {
		reply.User = user.Username
	}
	reply.ActiveSymbols = m.Subscriptions.ActiveSymbols()
	reply.FlushRounds = m.Subscriptions.Ticks()
	return nil
}

// Shutdown closes the feed and signals the main loop to exit.
func (m *RPCManager) Shutdown(args struct{}, reply *ShutdownReply) error {
	reply.Message = "Shutting down..."
	go func() {
		m.Subscriptions.Close()
		close(m.ShutdownCh)
	}()
	return nil
}
