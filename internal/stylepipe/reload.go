package isp

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type changeType string

const (
	ChangeTypeRebuilding changeType = "rebuilding"
	ChangeTypeCSS        changeType = "css"
	ChangeTypeError      changeType = "error"
)

const (
	reloadEventsPath = "/events"
	reloadScriptPath = "/reload.js"
	writeTimeout     = 2 * time.Second
)

type ReloadPayload struct {
	ChangeType changeType `json:"changeType"`
	Files      Manifest   `json:"files,omitempty"`
	Error      string     `json:"error,omitempty"`
	At         time.Time  `json:"at"`
}

// ReloadHub fans rebuild notifications out to connected websocket clients.
// A nil *ReloadHub is valid and drops every broadcast.
type ReloadHub struct {
	upgrader websocket.Upgrader
	logger   Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewReloadHub(logger Logger) *ReloadHub {
	if logger == nil {
		logger = Log
	}
	return &ReloadHub{
		upgrader: websocket.Upgrader{
			// Dev-only server, pages are served from another origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("error upgrading reload connection: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Clients never send anything meaningful; reading is how we notice
	// that they left.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *ReloadHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Broadcast sends p to every client, dropping clients that fail.
func (h *ReloadHub) Broadcast(p ReloadPayload) {
	if h == nil {
		return
	}
	if p.At.IsZero() {
		p.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(p); err != nil {
			h.logger.Debugf("dropping reload client %s: %v", conn.RemoteAddr(), err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *ReloadHub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler serves the websocket endpoint and the browser script.
func (h *ReloadHub) Handler(port int) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(reloadEventsPath, h)
	mux.HandleFunc(reloadScriptPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "text/javascript")
		w.Write([]byte(GetReloadScriptInner(port)))
	})
	return mux
}

func (h *ReloadHub) newServer(port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.Handler(port),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// GetReloadScript returns a <script> element that connects to the reload
// server on port.
func GetReloadScript(port int) string {
	return "\n<script>\n" + GetReloadScriptInner(port) + "\n</script>"
}

func GetReloadScriptInner(port int) string {
	return fmt.Sprintf(reloadScriptFmt, port)
}

// changeTypes: "rebuilding", "css", "error"
// Stylesheet links are swapped in place; matching is by the entry's output
// file name, with any hash suffix ignored.
const reloadScriptFmt = `
const ws = new WebSocket("ws://localhost:%d/events");

function stripHash(name) {
	return name.replace(/_[0-9a-f]{12}\.css$/, ".css");
}

ws.onmessage = (e) => {
	const { changeType, files, error } = JSON.parse(e.data);
	if (changeType == "rebuilding") {
		console.info("STYLEPIPE: rebuilding CSS...");
	}
	if (changeType == "error") {
		console.error("STYLEPIPE: build failed\n" + error);
	}
	if (changeType == "css") {
		const outputs = Object.values(files || {});
		for (const link of document.querySelectorAll('link[rel="stylesheet"]')) {
			const url = new URL(link.href);
			const name = url.pathname.split("/").pop();
			const match = outputs.find((o) => stripHash(o.split("/").pop()) == stripHash(name));
			if (!match) continue;
			const newLink = link.cloneNode();
			newLink.href = url.pathname.replace(name, match.split("/").pop()) + "?t=" + Date.now();
			newLink.onload = () => link.remove();
			link.parentNode.insertBefore(newLink, link.nextSibling);
		}
	}
};

ws.onclose = () => {
	console.log("STYLEPIPE: reload server went away");
};
`
