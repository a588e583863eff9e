// Package main provides the entry point for aredis-cli.
//
// aredis-cli is a command-line Redis client, supporting both
// single-command mode and an interactive REPL mode.
//
// Usage:
//
//	aredis-cli                          # start the REPL
//	aredis-cli connect --name cache localhost
//	aredis-cli exec GET foo
//	aredis-cli --host redis.example.com config save prod
package main
