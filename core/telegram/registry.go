package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/commands"
)

// Registry holds bot commands and callback namespaces.
type Registry struct {
	commands         map[string]commands.Command
	aliases          map[string]string
	callbacks        map[string]tele.HandlerFunc
	callbacksMu      sync.RWMutex
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

func warnWire(event string, attrs ...slog.Attr) {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event, attrs...)
}

func aliasKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RegisterCommand adds a new command. Aliases are matched case-insensitively
// against free text, so reply-keyboard labels can reach the same handler.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		warnWire("register.command.skip", slog.String("name", name), slog.String("reason", "invalid"))
		return
	}
	if name[0] != '/' {
		warnWire("register.command.skip", slog.String("name", name), slog.String("reason", "no_slash_prefix"))
		return
	}
	if _, exists := r.commands[name]; exists {
		warnWire("register.command.duplicate", slog.String("name", name))
		return
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		key := aliasKey(alias)
		if key == "" {
			continue
		}
		if owner, taken := r.aliases[key]; taken {
			warnWire("register.alias.duplicate", slog.String("name", alias), slog.String("owner", owner))
			continue
		}
		r.aliases[key] = name
	}
}

// ListCommands returns a slice of tele.Command, optionally filtering out hidden and admin-only commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: cmd, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand finds a command by its slash name or by one of its aliases.
// Trailing arguments after the first space are ignored.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", commands.Command{}, false
	}
	if strings.HasPrefix(text, "/") {
		name, _, _ := strings.Cut(text, " ")
		name, _, _ = strings.Cut(name, "@")
		if cmd, ok := r.commands[name]; ok {
			return name, cmd, true
		}
	}
	if owner, ok := r.aliases[aliasKey(text)]; ok {
		return owner, r.commands[owner], true
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterCallback binds handler to a callback namespace (the token part before the first ':').
func (r *Registry) RegisterCallback(namespace string, handler tele.HandlerFunc) error {
	if r == nil || namespace == "" || handler == nil {
		warnWire("register.callback.skip", slog.String("cb_key", namespace), slog.Bool("handler_nil", handler == nil))
		return fmt.Errorf("invalid callback registration: %q", namespace)
	}
	if strings.Contains(namespace, ":") {
		return fmt.Errorf("callback namespace %q must not contain ':'", namespace)
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[namespace]; exists {
		warnWire("register.callback.duplicate", slog.String("cb_key", namespace))
		return fmt.Errorf("callback already registered: %s", namespace)
	}
	r.callbacks[namespace] = handler
	return nil
}

// GetCallback safely returns handler by namespace.
func (r *Registry) GetCallback(namespace string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[namespace]
	return h, ok
}

// ListCallbacks returns sorted namespaces.
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets a global fallback handler for unknown text messages.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands sets the Telegram bot commands shown in the command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
