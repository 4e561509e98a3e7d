// Package main provides the entry point for the proxyadm CLI.
//
// proxyadm manages credentials, configuration, and usage accounting for
// three proxy backends: Dante (SOCKS5), Squid (HTTP), and Shadowsocks.
//
// Usage:
//
//	proxyadm setup --backend socks5
//	proxyadm user-add alice --backend http
//	proxyadm user-stats alice --backend http
//
// See --help for all available options.
package main

// main is the entry point for proxyadm.
func main() {
	Execute()
}
