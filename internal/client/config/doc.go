// Package config loads runtime configuration for the taskboard CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file passed to Load (the CLI's --config flag).
//  3. TASKBOARD_CLI_* environment variables.
//  4. Command-line flags, applied by the CLI on top of the loaded Config.
//
// # File keys
//
//	server_addr: "127.0.0.1:50051"
//	session_file: "/home/ann/.config/taskboard/session.json"
//	request_timeout: "10s"
package config
