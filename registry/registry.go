// Package registry maps symbolic component and command names onto the
// numeric (component id, command id) pairs carried in frame headers.
// Tables can be built in code or loaded from TOML files at startup.
// Unknown ids never fail a lookup; they render as "unknown(0x...)" so
// newer peers stay inspectable.
package registry

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Component is one component's command tables. Notifications live in a
// separate namespace from request/response commands: the same numeric
// id can name a command and an unrelated notification.
type Component struct {
	Name string
	ID   uint16

	commands      map[uint16]string
	notifications map[uint16]string
	commandIDs    map[string]uint16
	notifyIDs     map[string]uint16
}

func newComponent(name string, id uint16) *Component {
	return &Component{
		Name:          name,
		ID:            id,
		commands:      make(map[uint16]string),
		notifications: make(map[uint16]string),
		commandIDs:    make(map[string]uint16),
		notifyIDs:     make(map[string]uint16),
	}
}

// AddCommand registers a request/response command name.
func (c *Component) AddCommand(name string, id uint16) *Component {
	c.commands[id] = name
	c.commandIDs[name] = id
	return c
}

// AddNotification registers a notification name.
func (c *Component) AddNotification(name string, id uint16) *Component {
	c.notifications[id] = name
	c.notifyIDs[name] = id
	return c
}

// Registry holds the bidirectional component/command tables.
type Registry struct {
	components map[uint16]*Component
	byName     map[string]*Component
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[uint16]*Component),
		byName:     make(map[string]*Component),
	}
}

// AddComponent registers a component and returns it for command
// registration.
func (r *Registry) AddComponent(name string, id uint16) *Component {
	c := newComponent(name, id)
	r.components[id] = c
	r.byName[name] = c
	return c
}

// Component returns the component registered under id.
func (r *Registry) Component(id uint16) (*Component, bool) {
	c, ok := r.components[id]
	return c, ok
}

// ComponentName resolves a component id to its name, or "unknown(0x..)"
// for ids the table does not cover.
func (r *Registry) ComponentName(id uint16) string {
	if c, ok := r.components[id]; ok {
		return c.Name
	}
	return unknown(id)
}

// CommandName resolves a (component, command) pair to a name. Notify
// frames resolve against the notification namespace.
func (r *Registry) CommandName(component, command uint16, notify bool) string {
	c, ok := r.components[component]
	if !ok {
		return unknown(command)
	}
	table := c.commands
	if notify {
		table = c.notifications
	}
	if name, ok := table[command]; ok {
		return name
	}
	return unknown(command)
}

// Lookup resolves symbolic names back to their numeric pair.
func (r *Registry) Lookup(componentName, commandName string) (component, command uint16, ok bool) {
	c, found := r.byName[componentName]
	if !found {
		return 0, 0, false
	}
	if id, found := c.commandIDs[commandName]; found {
		return c.ID, id, true
	}
	if id, found := c.notifyIDs[commandName]; found {
		return c.ID, id, true
	}
	return 0, 0, false
}

// Components returns the registered component ids.
func (r *Registry) Components() []uint16 {
	ids := make([]uint16, 0, len(r.components))
	for id := range r.components {
		ids = append(ids, id)
	}
	return ids
}

func unknown(id uint16) string {
	return fmt.Sprintf("unknown(0x%04X)", id)
}

// ===== TOML LOADING =====

// Table layout:
//
//	[[component]]
//	name = "authentication"
//	id = 0x01
//	[component.commands]
//	login = 0x28
//	[component.notifications]
//	user_added = 0x02

type tomlTable struct {
	Components []tomlComponent `toml:"component"`
}

type tomlComponent struct {
	Name          string            `toml:"name"`
	ID            uint16            `toml:"id"`
	Commands      map[string]uint16 `toml:"commands"`
	Notifications map[string]uint16 `toml:"notifications"`
}

// LoadTOML merges component tables from a TOML file into the registry.
func (r *Registry) LoadTOML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read component table: %w", err)
	}
	return r.loadTOML(data)
}

func (r *Registry) loadTOML(data []byte) error {
	var table tomlTable
	if err := toml.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("failed to parse component table: %w", err)
	}

	for _, tc := range table.Components {
		if tc.Name == "" {
			return fmt.Errorf("component 0x%04X has no name", tc.ID)
		}
		c := r.AddComponent(tc.Name, tc.ID)
		for name, id := range tc.Commands {
			c.AddCommand(name, id)
		}
		for name, id := range tc.Notifications {
			c.AddNotification(name, id)
		}
	}
	return nil
}
