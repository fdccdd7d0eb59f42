package mock

import (
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// TableResponse answers commands from a table of fixed responses.
//
// A command is either answered directly or, when sub-command entries exist for it,
// by the entry matching the first argument byte. Commands missing from the table
// are answered by the fallback provider, RandomResponse by default.
type TableResponse struct {
	id       string
	fallback ResponseProvider

	mu      sync.RWMutex
	direct  map[uint16][]byte
	subcmds map[uint16]map[uint8][]byte
}

var _ ResponseProvider = (*TableResponse)(nil)

// NewTableResponse creates an empty table named id.
func NewTableResponse(id string) *TableResponse {
	return &TableResponse{
		id:       id,
		fallback: RandomResponse{},
		direct:   make(map[uint16][]byte),
		subcmds:  make(map[uint16]map[uint8][]byte),
	}
}

// Set registers the response of cmdID.
func (t *TableResponse) Set(cmdID uint16, response []byte) *TableResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.direct[cmdID] = response

	return t
}

// SetSub registers the response of cmdID when its first argument byte is sub.
func (t *TableResponse) SetSub(cmdID uint16, sub uint8, response []byte) *TableResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subcmds[cmdID] == nil {
		t.subcmds[cmdID] = make(map[uint8][]byte)
	}
	t.subcmds[cmdID][sub] = response

	return t
}

// WithFallback sets the provider for commands missing from the table.
func (t *TableResponse) WithFallback(p ResponseProvider) *TableResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = p

	return t
}

func (t *TableResponse) ID() string {
	return t.id
}

func (t *TableResponse) HandleCommand(cmdID uint16, data []byte, length int) ([]byte, error) {
	t.mu.RLock()
	subs, hasSubs := t.subcmds[cmdID]
	resp, hasDirect := t.direct[cmdID]
	fallback := t.fallback
	t.mu.RUnlock()

	if hasSubs {
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: command 0x%X", ErrNoSubcommand, cmdID)
		}
		if r, ok := subs[data[0]]; ok {
			return r, nil
		}
	} else if hasDirect {
		return resp, nil
	}

	return fallback.HandleCommand(cmdID, data, length)
}

// TableEntry is one response in a YAML table file.
//
// Exactly one of ASCII and Hex holds the response.
type TableEntry struct {
	Command    uint16 `yaml:"command"`
	Subcommand *uint8 `yaml:"subcommand,omitempty"`
	ASCII      string `yaml:"ascii,omitempty"`
	Hex        string `yaml:"hex,omitempty"`
}

// TableFile is the YAML representation of a TableResponse.
//
//	id: svm41
//	responses:
//	  - command: 0xd0
//	    subcommand: 1
//	    ascii: SVM41
//	  - command: 0x2619
//	    hex: "beef0000"
type TableFile struct {
	ID        string       `yaml:"id"`
	Responses []TableEntry `yaml:"responses"`
}

// ParseTableResponse parses a YAML response table.
func ParseTableResponse(data []byte) (*TableResponse, error) {
	var file TableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("mock: parse response table: %w", err)
	}
	if file.ID == "" {
		return nil, fmt.Errorf("mock: response table id is required")
	}

	table := NewTableResponse(file.ID)
	for i, entry := range file.Responses {
		resp, err := entry.bytes()
		if err != nil {
			return nil, fmt.Errorf("mock: response table entry %d: %w", i, err)
		}
		if entry.Subcommand != nil {
			table.SetSub(entry.Command, *entry.Subcommand, resp)
		} else {
			table.Set(entry.Command, resp)
		}
	}

	return table, nil
}

// LoadTableResponse reads a YAML response table from path.
func LoadTableResponse(path string) (*TableResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mock: read response table: %w", err)
	}

	return ParseTableResponse(data)
}

func (e TableEntry) bytes() ([]byte, error) {
	switch {
	case e.ASCII != "" && e.Hex != "":
		return nil, fmt.Errorf("command 0x%X has both ascii and hex", e.Command)
	case e.Hex != "":
		return hex.DecodeString(e.Hex)
	default:
		return []byte(e.ASCII), nil
	}
}
