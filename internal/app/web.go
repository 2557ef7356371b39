// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/rover_bridge/internal/cloud"
	"github.com/relabs-tech/rover_bridge/internal/config"
	"github.com/relabs-tech/rover_bridge/internal/rover"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsWriteTimeout = 5 * time.Second

// CommandPublisher sends operator commands toward the rover.
type CommandPublisher interface {
	PublishCommand(rover.Command) error
}

// Dashboard keeps the latest rover status and relays operator commands.
type Dashboard struct {
	commands CommandPublisher
	now      func() time.Time

	mu         sync.RWMutex
	lastStatus rover.StatusDocument
	haveStatus bool

	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // one writer at a time
}

// wsMessage is what dashboard clients send over the websocket.
type wsMessage struct {
	Action  string         `json:"action"`
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

type wsReply struct {
	Type   string                `json:"type"`
	Status *rover.StatusDocument `json:"status,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func NewDashboard(commands CommandPublisher) *Dashboard {
	return &Dashboard{
		commands: commands,
		now:      time.Now,
		clients:  make(map[*wsClient]struct{}),
	}
}

// UpdateStatus stores a status document received from the broker, stamps its
// server time and pushes it to websocket clients.
func (d *Dashboard) UpdateStatus(doc rover.StatusDocument) {
	if !doc.LastUpdate.IsSet() {
		doc.LastUpdate.Stamp(d.now())
	}

	d.mu.Lock()
	d.lastStatus = doc
	d.haveStatus = true
	d.mu.Unlock()

	d.broadcast(wsReply{Type: "status", Status: &doc})
}

// Handler returns the dashboard routes.
func (d *Dashboard) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", d.handleStatus)
	mux.HandleFunc("/api/command", d.handleCommand)
	mux.HandleFunc("/ws/status", d.handleWS)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

func (d *Dashboard) handleStatus(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	doc, ok := d.lastStatus, d.haveStatus
	d.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (d *Dashboard) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var doc rover.CommandDocument
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&doc); err != nil {
		http.Error(w, "invalid command document", http.StatusBadRequest)
		return
	}

	cmd, err := d.sendCommand(doc.Command, doc.Params)
	if err != nil {
		http.Error(w, err.Error(), commandErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"id": cmd.ID, "command": cmd.Name}); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

type badCommandError struct{ name string }

func (e badCommandError) Error() string { return fmt.Sprintf("unknown command %q", e.name) }

func commandErrorStatus(err error) int {
	if _, ok := err.(badCommandError); ok {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func (d *Dashboard) sendCommand(name string, params map[string]any) (rover.Command, error) {
	if !rover.KnownCommand(name) {
		return rover.Command{}, badCommandError{name: name}
	}
	cmd := rover.NewCommand(name, params)
	if err := d.commands.PublishCommand(cmd); err != nil {
		log.Printf("web: publish command %q: %v", name, err)
		return rover.Command{}, err
	}
	log.Printf("web: command %q sent (%s)", cmd.Name, cmd.ID)
	return cmd, nil
}

func (d *Dashboard) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	client := &wsClient{conn: conn}
	d.addClient(client)
	defer func() {
		d.removeClient(client)
		conn.Close()
	}()

	// Send the current status on connect.
	d.mu.RLock()
	doc, ok := d.lastStatus, d.haveStatus
	d.mu.RUnlock()
	if ok {
		client.send(wsReply{Type: "status", Status: &doc})
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			return
		}

		switch msg.Action {
		case "command":
			if _, err := d.sendCommand(msg.Command, msg.Params); err != nil {
				client.send(wsReply{Type: "error", Error: err.Error()})
				continue
			}
			client.send(wsReply{Type: "ack"})
		default:
			client.send(wsReply{Type: "error", Error: "missing or invalid action field"})
		}
	}
}

func (d *Dashboard) addClient(c *wsClient) {
	d.clientsMu.Lock()
	d.clients[c] = struct{}{}
	d.clientsMu.Unlock()
}

func (d *Dashboard) removeClient(c *wsClient) {
	d.clientsMu.Lock()
	delete(d.clients, c)
	d.clientsMu.Unlock()
}

func (d *Dashboard) broadcast(reply wsReply) {
	d.clientsMu.Lock()
	clients := make([]*wsClient, 0, len(d.clients))
	for c := range d.clients {
		clients = append(clients, c)
	}
	d.clientsMu.Unlock()

	for _, c := range clients {
		if err := c.send(reply); err != nil {
			log.Printf("web: websocket write error: %v", err)
		}
	}
}

func (c *wsClient) send(reply wsReply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(reply)
}

// RunWeb subscribes to the rover status and serves the dashboard.
func RunWeb() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	dash := NewDashboard(nil)
	cl, err := cloud.Dial(cloud.Options{
		Broker:          cfg.MQTTBroker,
		ClientID:        cfg.MQTTClientIDWeb,
		Username:        cfg.MQTTUsername,
		Password:        cfg.MQTTPassword,
		CommandTopic:    cfg.TopicCommands,
		StatusTopic:     cfg.TopicStatus,
		OnStatus:        dash.UpdateStatus,
		ConnectAttempts: cloudConnectRetries,
		RetryDelay:      cfg.Reconnect(),
	})
	if err != nil {
		return err
	}
	defer cl.Close()
	dash.commands = cl

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go cl.Supervise(ctx)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	srv := &http.Server{Addr: addr, Handler: dash.Handler("web")}
	go func() {
		<-ctx.Done()
		log.Println("web: shutting down")
		srv.Close()
	}()

	log.Printf("web: server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
