// Package repl provides the interactive REPL mode for aredis-cli.
package repl

import "strings"

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a new Completer preloaded with the REPL meta-commands,
// the CLI's connect/disconnect/help command names, and the most common Redis
// command names.
func NewCompleter() *Completer {
	return &Completer{
		commands: []string{
			"connect", "disconnect", "use", "connections",
			"help", "exit", "quit",
			"get", "set", "del", "exists", "expire", "ttl", "type",
			"incr", "decr", "incrby", "decrby",
			"hget", "hset", "hgetall", "hdel", "hincrby",
			"lpush", "rpush", "lpop", "rpop", "lrange", "llen",
			"sadd", "srem", "smembers", "sismember",
			"zadd", "zrange", "zrangebyscore", "zscore", "zrem",
			"subscribe", "unsubscribe", "publish",
			"ping", "echo", "select", "flushdb", "info", "config",
		},
	}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
