// Package discord provides the event handler for managing Discord events.
package discord

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// EventHandler adds gateway handlers to the session and remembers which
// events have one
type EventHandler struct {
	client *ExtendedClient
	names  []string
	mu     sync.RWMutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{client: client}
}

// LoadEvents checks the registered handlers before the session opens.
// Without a GuildMemberAdd handler muted users can shed the role by
// rejoining, so that is reported loudly.
func (eh *EventHandler) LoadEvents() error {
	names := eh.Registered()
	if len(names) == 0 {
		return fmt.Errorf("no hay eventos registrados")
	}
	if !eh.Has("GuildMemberAdd") {
		logger.Warn("Sin evento GuildMemberAdd: los mutes no se reaplicarán al volver al servidor", "EventHandler")
	}
	logger.System(fmt.Sprintf("%d eventos registrados: %s", len(names), strings.Join(names, ", ")), "EventHandler")
	return nil
}

// Registered returns the event names in registration order
func (eh *EventHandler) Registered() []string {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	return append([]string(nil), eh.names...)
}

// Has reports whether a handler for the named event was registered
func (eh *EventHandler) Has(name string) bool {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	for _, n := range eh.names {
		if n == name {
			return true
		}
	}
	return false
}

func (eh *EventHandler) add(name string, handler interface{}) {
	eh.client.Session.AddHandler(handler)
	eh.mu.Lock()
	eh.names = append(eh.names, name)
	eh.mu.Unlock()
	logger.Debug(fmt.Sprintf("Evento '%s' registrado", name), "EventHandler")
}

// RegisterEvent adds a handler with one of the plain func signatures
// discordgo recognizes. It is recorded under the event's type name.
func (eh *EventHandler) RegisterEvent(handler interface{}) {
	eh.add(eventName(handler), handler)
}

// eventName is the type name of the event a handler takes, e.g.
// "Disconnect" for func(*discordgo.Session, *discordgo.Disconnect)
func eventName(handler interface{}) string {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != 2 {
		return "unknown"
	}
	in := t.In(1)
	if in.Kind() == reflect.Ptr {
		in = in.Elem()
	}
	if in.Name() == "" {
		return "unknown"
	}
	return in.Name()
}

// ReadyHandler is called when the bot is ready
type ReadyHandler func(s *discordgo.Session, r *discordgo.Ready)

// GuildCreateHandler is called when the bot joins a guild
type GuildCreateHandler func(s *discordgo.Session, g *discordgo.GuildCreate)

// GuildDeleteHandler is called when the bot leaves a guild
type GuildDeleteHandler func(s *discordgo.Session, g *discordgo.GuildDelete)

// GuildMemberAddHandler is called when a member joins a guild
type GuildMemberAddHandler func(s *discordgo.Session, m *discordgo.GuildMemberAdd)

// OnReady registers a ready event handler. A panic in it is recovered.
func (eh *EventHandler) OnReady(handler ReadyHandler) {
	eh.add("Ready", func(s *discordgo.Session, r *discordgo.Ready) {
		defer errors.RecoverMiddleware()()
		handler(s, r)
	})
}

// OnGuildCreate registers a guild create event handler
func (eh *EventHandler) OnGuildCreate(handler GuildCreateHandler) {
	eh.add("GuildCreate", func(s *discordgo.Session, g *discordgo.GuildCreate) {
		defer errors.RecoverMiddleware()()
		handler(s, g)
	})
}

// OnGuildDelete registers a guild delete event handler
func (eh *EventHandler) OnGuildDelete(handler GuildDeleteHandler) {
	eh.add("GuildDelete", func(s *discordgo.Session, g *discordgo.GuildDelete) {
		defer errors.RecoverMiddleware()()
		handler(s, g)
	})
}

// OnGuildMemberAdd registers a member join handler. Bot accounts never
// carry moderation state, so their joins are not passed on.
func (eh *EventHandler) OnGuildMemberAdd(handler GuildMemberAddHandler) {
	eh.add("GuildMemberAdd", func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		defer errors.RecoverMiddleware()()
		if m.Member == nil || m.User == nil || m.User.Bot {
			return
		}
		handler(s, m)
	})
}
