package commands

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Invocation: контекст вызова слэш-команды.
type Invocation struct {
	GuildID   string
	GuildName string
	OwnerID   string
	UserID    string
	UserTag   string
}

type Response struct {
	Content   string
	Ephemeral bool
}

type Command struct {
	Name        string
	Description string
	// AdminOnly: при регистрации команда видна только администраторам
	AdminOnly bool
	Execute   func(ctx context.Context, inv Invocation) (Response, error)
}

const genericError = "❌ There was an error while executing this command!"

type Registry struct {
	commands map[string]Command
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger, cmds ...Command) *Registry {
	r := &Registry{
		commands: make(map[string]Command, len(cmds)),
		logger:   logger.With(zap.String("mod", "commands")),
	}
	for _, c := range cmds {
		r.Register(c)
	}
	return r
}

func (r *Registry) Register(c Command) {
	r.commands[c.Name] = c
	r.logger.Debug("command loaded", zap.String("command", c.Name))
}

// Commands возвращает зарегистрированные команды в алфавитном порядке.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch выполняет команду. Ошибки и паники превращаются в скрытый ответ с общим текстом.
func (r *Registry) Dispatch(ctx context.Context, name string, inv Invocation) (resp Response) {
	c, ok := r.commands[name]
	if !ok {
		r.logger.Warn("no command matching", zap.String("command", name))
		return Response{Content: genericError, Ephemeral: true}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("command panicked", zap.String("command", name), zap.Any("panic", rec))
			resp = Response{Content: genericError, Ephemeral: true}
		}
	}()

	resp, err := c.Execute(ctx, inv)
	if err != nil {
		r.logger.Error("command failed",
			zap.String("command", name),
			zap.String("user", inv.UserTag),
			zap.Error(fmt.Errorf("%s: %w", name, err)))
		return Response{Content: genericError, Ephemeral: true}
	}
	return resp
}
