// Package core is the firmware side of pinio: the command registry and
// dispatcher, the data dictionary the host introspects, the timer queue,
// and the pin control commands built on the gpio package.
package core

import (
	"errors"
	"sync"
)

// CommandHandler decodes its own arguments from data and executes one
// command. Response messages are registered with a nil handler.
type CommandHandler func(data *[]byte) error

// Command is one registered message, host-to-MCU (with handler) or
// MCU-to-host (without).
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument format, e.g. "oid=%c pin=%u"
	Handler CommandHandler
}

// CommandRegistry assigns wire IDs to commands in registration order and
// dispatches inbound commands by ID.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[uint16]*Command
	nameToID map[string]uint16
	nextID   uint16
}

var globalRegistry = NewCommandRegistry()

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
		nameToID: make(map[string]uint16),
	}
}

// RegisterCommand adds a command to the global registry.
func RegisterCommand(name string, format string, handler CommandHandler) uint16 {
	return globalRegistry.Register(name, format, handler)
}

// RegisterResponse adds an MCU-to-host message to the global registry.
func RegisterResponse(name string, format string) uint16 {
	return globalRegistry.Register(name, format, nil)
}

// Register adds a command, returning its wire ID. Registering the same
// name twice returns the existing ID.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := r.nextID
	r.nextID++

	r.commands[id] = &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	}
	r.nameToID[name] = id

	return id
}

func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch runs the handler registered for cmdID.
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok || cmd.Handler == nil {
		return errors.New("unknown command ID " + itoa(int(cmdID)))
	}
	return cmd.Handler(data)
}

// Declarations returns "name format" keyed wire IDs, split into commands
// (with handlers) and responses (without), for the dictionary.
func (r *CommandRegistry) Declarations() (commands map[string]int, responses map[string]int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands = make(map[string]int)
	responses = make(map[string]int)

	for id := uint16(0); id < r.nextID; id++ {
		cmd, ok := r.commands[id]
		if !ok {
			continue
		}

		key := cmd.Name
		if cmd.Format != "" {
			key = cmd.Name + " " + cmd.Format
		}

		if cmd.Handler != nil {
			commands[key] = int(cmd.ID)
		} else {
			responses[key] = int(cmd.ID)
		}
	}
	return commands, responses
}

// DispatchCommand dispatches through the global registry.
func DispatchCommand(cmdID uint16, data *[]byte) error {
	return globalRegistry.Dispatch(cmdID, data)
}

// GetGlobalRegistry returns the global command registry.
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}
