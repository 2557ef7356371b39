// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/rover_bridge/internal/rover"
)

const (
	publishTimeout   = 5 * time.Second
	subscribeTimeout = 5 * time.Second
	commandBuffer    = 16
)

// Options configures a Link.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string

	CommandTopic string
	StatusTopic  string

	// ListenCommands subscribes to CommandTopic and feeds Commands().
	ListenCommands bool
	// OnStatus, when set, subscribes to StatusTopic.
	OnStatus func(rover.StatusDocument)

	// ConnectAttempts bounds the initial connect; RetryDelay separates attempts.
	ConnectAttempts int
	RetryDelay      time.Duration
}

// Link is the MQTT side of the rover: commands in, status out.
type Link struct {
	opts     Options
	client   mqtt.Client
	commands chan rover.Command
	ready    atomic.Bool
}

// Dial connects to the broker. Subscriptions are made from the connect
// handler so they are restored on every reconnect.
func Dial(opts Options) (*Link, error) {
	if opts.ConnectAttempts <= 0 {
		opts.ConnectAttempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}

	l := &Link{opts: opts, commands: make(chan rover.Command, commandBuffer)}

	mopts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetOnConnectHandler(l.connected).
		SetConnectionLostHandler(l.lost)

	l.client = mqtt.NewClient(mopts)

	var err error
	for attempt := 1; attempt <= opts.ConnectAttempts; attempt++ {
		if err = l.connect(); err == nil {
			return l, nil
		}
		log.Printf("cloud: connect attempt %d/%d to %s failed: %v", attempt, opts.ConnectAttempts, opts.Broker, err)
		if attempt < opts.ConnectAttempts {
			time.Sleep(opts.RetryDelay)
		}
	}
	return nil, fmt.Errorf("connect to MQTT broker %s: %w", opts.Broker, err)
}

func (l *Link) connect() error {
	token := l.client.Connect()
	token.Wait()
	return token.Error()
}

// Reconnect makes one connection attempt after the configured delay. It is a
// no-op while the connection is still open and only the subscriptions are
// pending.
func (l *Link) Reconnect() error {
	if l.client.IsConnectionOpen() {
		return nil
	}
	time.Sleep(l.opts.RetryDelay)
	if err := l.connect(); err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	return nil
}

// Supervise reconnects whenever the link drops, until ctx is done. Processes
// that have no polling loop of their own run it in a goroutine.
func (l *Link) Supervise(ctx context.Context) {
	ticker := time.NewTicker(l.opts.RetryDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if l.Ready() || l.client.IsConnectionOpen() {
			continue
		}
		if err := l.connect(); err != nil {
			log.Printf("cloud: reconnect: %v", err)
		}
	}
}

// Ready reports whether the link is connected and subscribed.
func (l *Link) Ready() bool {
	return l.ready.Load()
}

// Commands delivers decoded remote commands, oldest first.
func (l *Link) Commands() <-chan rover.Command {
	return l.commands
}

// PublishStatus publishes doc as the retained status document.
func (l *Link) PublishStatus(doc rover.StatusDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return l.publish(l.opts.StatusTopic, true, payload)
}

// PublishCommand publishes a command document. Commands are never retained:
// a rover that reconnects must not act on old orders.
func (l *Link) PublishCommand(cmd rover.Command) error {
	doc := cmd.Document()
	doc.Timestamp = json.RawMessage(fmt.Sprintf("%d", time.Now().UnixMilli()))
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return l.publish(l.opts.CommandTopic, false, payload)
}

func (l *Link) publish(topic string, retained bool, payload []byte) error {
	if !l.Ready() {
		return fmt.Errorf("publish %s: link not ready", topic)
	}
	token := l.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (l *Link) Close() {
	l.ready.Store(false)
	l.client.Disconnect(250)
	log.Println("cloud: disconnected")
}

func (l *Link) connected(c mqtt.Client) {
	log.Printf("cloud: connected to %s", l.opts.Broker)

	if l.opts.ListenCommands {
		if err := subscribe(c, l.opts.CommandTopic, l.handleCommand); err != nil {
			log.Printf("cloud: %v", err)
			return
		}
		log.Printf("cloud: listening for commands on %s", l.opts.CommandTopic)
	}
	if l.opts.OnStatus != nil {
		if err := subscribe(c, l.opts.StatusTopic, l.handleStatus); err != nil {
			log.Printf("cloud: %v", err)
			return
		}
		log.Printf("cloud: subscribed to %s", l.opts.StatusTopic)
	}
	l.ready.Store(true)
}

func (l *Link) lost(_ mqtt.Client, err error) {
	l.ready.Store(false)
	log.Printf("cloud: connection lost: %v", err)
}

func subscribe(c mqtt.Client, topic string, handler mqtt.MessageHandler) error {
	token := c.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("subscribe %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

func (l *Link) handleCommand(_ mqtt.Client, msg mqtt.Message) {
	if msg.Retained() {
		log.Printf("cloud: ignoring retained command on %s", msg.Topic())
		return
	}
	cmd, err := rover.DecodeCommand(msg.Payload())
	if err != nil {
		log.Printf("cloud: dropping command: %v", err)
		return
	}
	select {
	case l.commands <- cmd:
		log.Printf("cloud: command %q received (%s)", cmd.Name, cmd.ID)
	default:
		log.Printf("cloud: command queue full, dropping %q (%s)", cmd.Name, cmd.ID)
	}
}

func (l *Link) handleStatus(_ mqtt.Client, msg mqtt.Message) {
	var doc rover.StatusDocument
	if err := json.Unmarshal(msg.Payload(), &doc); err != nil {
		log.Printf("cloud: status unmarshal error: %v", err)
		return
	}
	l.opts.OnStatus(doc)
}
