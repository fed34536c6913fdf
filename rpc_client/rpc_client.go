package main

import (
	"flag"
	"fmt"
	"log"
	"net/rpc"
	"strings"
)

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

var (
	addr  = flag.String("addr", "localhost:9981", "RPC address of the running agent")
	force = flag.Bool("force", false, "bypass the snapshot cooldown")
)

func usage() {
	fmt.Println(`usage: rpc_client [-addr host:port] <command> [args]

commands:
  pin <symbol>        pin a symbol into the feed
  unpin <symbol>      unpin a symbol
  symbols             show active and pinned symbols
  snapshot [symbols]  fetch a REST snapshot (comma separated, default: all active)
  status              show session and feed state
  shutdown            stop the agent`)
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		return
	}

	client, err := rpc.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("Error dialing RPC server: %v", err)
	}
	defer client.Close()

	command := flag.Arg(0)
	switch command {
	case "pin", "unpin":
		if flag.NArg() < 2 {
			log.Fatalf("%s needs a symbol", command)
		}
		method := "RPCManager.PinSymbol"
		if command == "unpin" {
			method = "RPCManager.UnpinSymbol"
		}
		var reply SymbolReply
		if err := client.Call(method, SymbolArgs{Symbol: flag.Arg(1)}, &reply); err != nil {
			log.Fatalf("Error calling RPC method: %v", err)
		}
		fmt.Println(reply.Message)

	case "symbols":
		var reply CurrentSymbolsReply
		if err := client.Call("RPCManager.CurrentSymbols", struct{}{}, &reply); err != nil {
			log.Fatalf("Error calling RPC method: %v", err)
		}
		fmt.Printf("active: %s\n", strings.Join(reply.Active, ", "))
		fmt.Printf("pinned: %s\n", strings.Join(reply.Pinned, ", "))

	case "snapshot":
		args := SnapshotArgs{Force: *force}
		if flag.NArg() > 1 {
			args.Symbols = strings.Split(flag.Arg(1), ",")
		}
		var reply SnapshotReply
		if err := client.Call("RPCManager.Snapshot", args, &reply); err != nil {
			log.Fatalf("Error calling RPC method: %v", err)
		}
		fmt.Println(reply.Message)

	case "status":
		var reply StatusReply
		if err := client.Call("RPCManager.Status", struct{}{}, &reply); err != nil {
			log.Fatalf("Error calling RPC method: %v", err)
		}
		fmt.Printf("session: %s", reply.SessionState)
		if reply.User != "" {
			fmt.Printf(" (%s)", reply.User)
		}
		fmt.Println()
		fmt.Printf("symbols: %s\n", strings.Join(reply.ActiveSymbols, ", "))
		fmt.Printf("flush rounds: %d\n", reply.FlushRounds)

	case "shutdown":
		var reply ShutdownReply
		if err := client.Call("RPCManager.Shutdown", struct{}{}, &reply); err != nil {
			log.Fatalf("Error calling RPC method: %v", err)
		}
		fmt.Println(reply.Message)

	default:
		usage()
	}
}
