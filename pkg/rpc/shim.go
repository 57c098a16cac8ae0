package rpc

import (
	_ "embed"
	"net/http"
	"strings"
)

//go:embed provider.js
var providerScript string

// ShimHandler serves the page-side provider script. socketPath is the path
// of the WebsocketNode on the same host; the script dials it relative to its
// own origin unless the page sets window.__mockwalletSocket.
func ShimHandler(socketPath string) http.Handler {
	body := strings.ReplaceAll(providerScript, "__SOCKET_PATH__", socketPath)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write([]byte(body))
	})
}
