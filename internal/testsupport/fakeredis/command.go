package fakeredis

import (
	"strconv"
	"strings"
	"time"
)

// CommandHandler dispatches parsed RESP commands against a Store.
type CommandHandler struct {
	store *Store
}

// NewCommandHandler wires a handler to store.
func NewCommandHandler(store *Store) *CommandHandler {
	return &CommandHandler{store: store}
}

// Handle executes one command and writes its reply to conn.bw. The caller
// is responsible for flushing.
func (h *CommandHandler) Handle(conn *Conn, args [][]byte) {
	if len(args) == 0 {
		_ = WriteError(conn.bw, "ERR no command")
		return
	}
	switch normalizeCommandName(args[0]) {
	case "PING":
		h.handlePing(conn, args)
	case "ECHO":
		h.handleEcho(conn, args)
	case "GET":
		h.handleGet(conn, args)
	case "SET":
		h.handleSet(conn, args)
	case "DEL":
		h.handleDel(conn, args)
	case "EXISTS":
		h.handleExists(conn, args)
	case "EXPIRE":
		h.handleExpire(conn, args)
	case "TTL":
		h.handleTTL(conn, args)
	case "SUBSCRIBE":
		h.handleSubscribe(conn, args)
	case "UNSUBSCRIBE":
		h.handleUnsubscribe(conn, args)
	case "PUBLISH":
		h.handlePublish(conn, args)
	case "QUIT":
		_ = WriteSimpleString(conn.bw, "OK")
	default:
		_ = WriteError(conn.bw, "ERR unknown command '"+string(args[0])+"'")
	}
}

func (h *CommandHandler) handlePing(conn *Conn, args [][]byte) {
	if len(args) > 1 {
		_ = WriteBulk(conn.bw, args[1])
		return
	}
	_ = WriteSimpleString(conn.bw, "PONG")
}

func (h *CommandHandler) handleEcho(conn *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = WriteError(conn.bw, "ERR wrong number of arguments for 'ECHO' command")
		return
	}
	_ = WriteBulk(conn.bw, args[1])
}

func (h *CommandHandler) handleGet(conn *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = WriteError(conn.bw, "ERR wrong number of arguments for 'GET' command")
		return
	}
	v, ok := h.store.Get(string(args[1]))
	if !ok {
		_ = WriteNullBulk(conn.bw)
		return
	}
	_ = WriteBulk(conn.bw, v)
}

// SET <key> <value> [EX seconds]
func (h *CommandHandler) handleSet(conn *Conn, args [][]byte) {
	if len(args) < 3 {
		_ = WriteError(conn.bw, "ERR wrong number of arguments for 'SET' command")
		return
	}
	var ttl time.Duration
	for i := 3; i < len(args); i += 2 {
		if i+1 >= len(args) || strings.ToUpper(string(args[i])) != "EX" {
			_ = WriteError(conn.bw, "ERR syntax error")
			return
		}
		seconds, err := strconv.ParseInt(string(args[i+1]), 10, 64)
		if err != nil {
			_ = WriteError(conn.bw, "ERR value is not an integer or out of range")
			return
		}
		ttl = time.Duration(seconds) * time.Second
	}
	h.store.Set(string(args[1]), args[2], ttl)
	_ = WriteSimpleString(conn.bw, "OK")
}

func (h *CommandHandler) handleDel(conn *Conn, args [][]byte) {
	if len(args) < 2 {
		_ = WriteError(conn.bw, "ERR wrong number of arguments for 'DEL' command")
		return
	}
	keys := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		keys = append(keys, string(a))
	}
	_ = WriteInteger(conn.bw, int64(h.store.Del(keys...)))
}

func (h *CommandHandler) handleExists(conn *Conn, args [][]byte) {
	if len(args) < 2 {
		_ = WriteError(conn.bw, "ERR wrong number of arguments for 'EXISTS' command")
		return
	}
	keys := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		keys = append(keys, string(a))
	}
	_ = WriteInteger(conn.bw, int64(h.store.Exists(keys...)))
}

func (h *CommandHandler) handleExpire(conn *Conn, args [][]byte) {
	if len(args) != 3 {
		_ = WriteError(conn.bw, "ERR wrong number of arguments for 'EXPIRE' command")
		return
	}
	seconds, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		_ = WriteError(conn.bw, "ERR value is not an integer or out of range")
		return
	}
	if h.store.Expire(string(args[1]), time.Duration(seconds)*time.Second) {
		_ = WriteInteger(conn.bw, 1)
	} else {
		_ = WriteInteger(conn.bw, 0)
	}
}

func (h *CommandHandler) handleTTL(conn *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = WriteError(conn.bw, "ERR wrong number of arguments for 'TTL' command")
		return
	}
	_ = WriteInteger(conn.bw, h.store.TTL(string(args[1])))
}

func (h *CommandHandler) handleSubscribe(conn *Conn, args [][]byte) {
	if len(args) < 2 {
		_ = WriteError(conn.bw, "ERR wrong number of arguments for 'SUBSCRIBE' command")
		return
	}
	for _, a := range args[1:] {
		channel := string(a)
		conn.subscribe(channel)
		h.store.Subscribe(channel, conn)
		_ = WriteArrayHeader(conn.bw, 3)
		_ = WriteBulkString(conn.bw, "subscribe")
		_ = WriteBulkString(conn.bw, channel)
		_ = WriteInteger(conn.bw, int64(conn.subCount()))
	}
}

func (h *CommandHandler) handleUnsubscribe(conn *Conn, args [][]byte) {
	channels := args[1:]
	if len(channels) == 0 {
		conn.subsMu.Lock()
		for c := range conn.subs {
			channels = append(channels, []byte(c))
		}
		conn.subsMu.Unlock()
	}
	for _, a := range channels {
		channel := string(a)
		conn.unsubscribe(channel)
		h.store.Unsubscribe(channel, conn)
		_ = WriteArrayHeader(conn.bw, 3)
		_ = WriteBulkString(conn.bw, "unsubscribe")
		_ = WriteBulkString(conn.bw, channel)
		_ = WriteInteger(conn.bw, int64(conn.subCount()))
	}
}

func (h *CommandHandler) handlePublish(conn *Conn, args [][]byte) {
	if len(args) != 3 {
		_ = WriteError(conn.bw, "ERR wrong number of arguments for 'PUBLISH' command")
		return
	}
	n := h.store.Publish(string(args[1]), args[2])
	_ = WriteInteger(conn.bw, int64(n))
}
