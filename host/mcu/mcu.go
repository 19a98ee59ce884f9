// Package mcu is the host-side client: it connects to a pinio firmware
// over serial, retrieves the data dictionary, and issues pin commands by
// name. All symbolic pin names are resolved through the dictionary's pin
// enumeration, so a name the firmware was not built with is rejected on
// the host before anything is transmitted.
package mcu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pinio/host/serial"
	"pinio/protocol"
)

// Wire IDs fixed by the firmware's registration order. Everything else
// is looked up in the dictionary.
const (
	identifyResponseID = 0
	identifyID         = 1
)

const responseTimeout = 1 * time.Second

// MCU is a connection to a pinio microcontroller.
type MCU struct {
	transport *protocol.HostTransport
	port      serial.Port

	dictionary     *Dictionary
	dictionaryData []byte

	connected bool
}

// Dictionary is the parsed MCU data dictionary.
type Dictionary struct {
	Version      string                       `json:"version"`
	MCU          string                       `json:"mcu"`
	ClockFreq    uint32                       `json:"clock_freq"`
	Config       map[string]string            `json:"config"`
	Commands     map[string]int               `json:"commands"`
	Responses    map[string]int               `json:"responses"`
	Enumerations map[string]map[string]uint32 `json:"enumerations,omitempty"`
}

// declarationID finds a command or response by name. Declaration keys
// carry the argument format after the name ("update_pin oid=%c value=%c"),
// so match on the name prefix.
func declarationID(decls map[string]int, name string) (uint16, bool) {
	for key, id := range decls {
		if key == name || strings.HasPrefix(key, name+" ") {
			return uint16(id), true
		}
	}
	return 0, false
}

// CommandID returns the wire ID of a named command.
func (d *Dictionary) CommandID(name string) (uint16, bool) {
	return declarationID(d.Commands, name)
}

// ResponseID returns the wire ID of a named response.
func (d *Dictionary) ResponseID(name string) (uint16, bool) {
	return declarationID(d.Responses, name)
}

// ResolvePin maps a symbolic pin name like "PB5" to its packed pin
// address via the dictionary's pin enumeration.
func (d *Dictionary) ResolvePin(name string) (uint32, error) {
	pins, ok := d.Enumerations["pin"]
	if !ok {
		return 0, fmt.Errorf("dictionary has no pin enumeration")
	}
	value, ok := pins[name]
	if !ok {
		return 0, fmt.Errorf("unknown pin %q: not in the firmware's pin enumeration", name)
	}
	return value, nil
}

// PinNames returns every pin name the firmware exposes.
func (d *Dictionary) PinNames() []string {
	pins := d.Enumerations["pin"]
	names := make([]string, 0, len(pins))
	for name := range pins {
		names = append(names, name)
	}
	return names
}

// NewMCU creates an MCU instance, not yet connected.
func NewMCU() *MCU {
	return &MCU{}
}

// Connect opens a serial connection to the MCU.
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a serial connection with a custom config.
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	m.port = port
	m.transport = protocol.NewHostTransport(port)
	m.connected = true

	// Give the MCU time to come up if it resets on connect.
	time.Sleep(100 * time.Millisecond)

	return nil
}

// Close closes the connection.
func (m *MCU) Close() error {
	if m.transport != nil {
		if err := m.transport.Close(); err != nil {
			return err
		}
	}
	m.connected = false
	return nil
}

// IsConnected reports whether the MCU is connected.
func (m *MCU) IsConnected() bool {
	return m.connected
}

// Dictionary returns the parsed dictionary, nil before
// RetrieveDictionary.
func (m *MCU) Dictionary() *Dictionary {
	return m.dictionary
}

// DictionaryRaw returns the raw dictionary bytes.
func (m *MCU) DictionaryRaw() []byte {
	return m.dictionaryData
}

// RetrieveDictionary pulls the full dictionary from the MCU in identify
// chunks and parses it.
func (m *MCU) RetrieveDictionary() error {
	if !m.connected {
		return fmt.Errorf("not connected to MCU")
	}

	var dictBuffer bytes.Buffer
	offset := uint32(0)
	chunkSize := uint8(40)
	maxIterations := 1000

	for i := 0; i < maxIterations; i++ {
		chunk, err := m.sendIdentify(offset, chunkSize)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		if len(chunk) == 0 {
			break
		}

		dictBuffer.Write(chunk)
		offset += uint32(len(chunk))

		if len(chunk) < int(chunkSize) {
			break
		}
	}

	m.dictionaryData = dictBuffer.Bytes()

	dict := &Dictionary{}
	if err := json.Unmarshal(m.dictionaryData, dict); err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}
	m.dictionary = dict

	return nil
}

// sendIdentify requests one dictionary chunk.
func (m *MCU) sendIdentify(offset uint32, count uint8) ([]byte, error) {
	err := m.transport.SendCommand(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send identify: %w", err)
	}

	resp, err := m.transport.ReceiveResponse(responseTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to receive identify response: %w", err)
	}

	payload := resp.Payload

	cmdID, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response command ID: %w", err)
	}
	if cmdID != identifyResponseID {
		return nil, fmt.Errorf("unexpected response command ID %d", cmdID)
	}

	respOffset, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response offset: %w", err)
	}
	if respOffset != offset {
		return nil, fmt.Errorf("offset mismatch: requested %d, got %d", offset, respOffset)
	}

	data, err := protocol.DecodeVLQBytes(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response data: %w", err)
	}

	return data, nil
}

// SendCommand sends a named command with caller-encoded arguments.
func (m *MCU) SendCommand(name string, args func(output protocol.OutputBuffer)) error {
	if !m.connected {
		return fmt.Errorf("not connected to MCU")
	}
	if m.dictionary == nil {
		return fmt.Errorf("dictionary not loaded")
	}

	cmdID, ok := m.dictionary.CommandID(name)
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	return m.transport.SendCommand(cmdID, args)
}

// ConfigPin configures a pin under an OID. The pin is given by catalog
// name ("PB5"); output selects direction, value the initial level for
// outputs, defaultValue the level restored on shutdown.
func (m *MCU) ConfigPin(oid uint8, pinName string, output bool, value bool, defaultValue bool) error {
	if m.dictionary == nil {
		return fmt.Errorf("dictionary not loaded")
	}

	pin, err := m.dictionary.ResolvePin(pinName)
	if err != nil {
		return err
	}

	return m.SendCommand("config_pin", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(oid))
		protocol.EncodeVLQUint(out, pin)
		protocol.EncodeVLQUint(out, boolArg(output))
		protocol.EncodeVLQUint(out, boolArg(value))
		protocol.EncodeVLQUint(out, boolArg(defaultValue))
	})
}

// SetPin drives a configured output pin.
func (m *MCU) SetPin(oid uint8, value bool) error {
	return m.SendCommand("update_pin", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(oid))
		protocol.EncodeVLQUint(out, boolArg(value))
	})
}

// QueuePin schedules a level change for an MCU clock time.
func (m *MCU) QueuePin(oid uint8, clock uint32, value bool) error {
	return m.SendCommand("queue_pin", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(oid))
		protocol.EncodeVLQUint(out, clock)
		protocol.EncodeVLQUint(out, boolArg(value))
	})
}

// TogglePin inverts a configured output pin.
func (m *MCU) TogglePin(oid uint8) error {
	return m.SendCommand("toggle_pin", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(oid))
	})
}

// ReadPin reads the sensed level of a configured pin.
func (m *MCU) ReadPin(oid uint8) (bool, error) {
	if m.dictionary == nil {
		return false, fmt.Errorf("dictionary not loaded")
	}
	stateID, ok := m.dictionary.ResponseID("pin_state")
	if !ok {
		return false, fmt.Errorf("firmware has no pin_state response")
	}

	err := m.SendCommand("read_pin", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(oid))
	})
	if err != nil {
		return false, err
	}

	deadline := time.Now().Add(responseTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, fmt.Errorf("no pin_state response for oid %d", oid)
		}

		resp, err := m.transport.ReceiveResponse(remaining)
		if err != nil {
			return false, err
		}

		payload := resp.Payload
		cmdID, err := protocol.DecodeVLQUint(&payload)
		if err != nil || cmdID != uint32(stateID) {
			continue
		}
		respOID, err := protocol.DecodeVLQUint(&payload)
		if err != nil || respOID != uint32(oid) {
			continue
		}
		value, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return false, fmt.Errorf("malformed pin_state response: %w", err)
		}
		return value != 0, nil
	}
}

// GetClock queries the MCU's current clock value.
func (m *MCU) GetClock() (uint32, error) {
	if m.dictionary == nil {
		return 0, fmt.Errorf("dictionary not loaded")
	}
	clockID, ok := m.dictionary.ResponseID("clock")
	if !ok {
		return 0, fmt.Errorf("firmware has no clock response")
	}

	err := m.SendCommand("get_clock", func(out protocol.OutputBuffer) {})
	if err != nil {
		return 0, err
	}

	deadline := time.Now().Add(responseTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, fmt.Errorf("no clock response")
		}

		resp, err := m.transport.ReceiveResponse(remaining)
		if err != nil {
			return 0, err
		}

		payload := resp.Payload
		cmdID, err := protocol.DecodeVLQUint(&payload)
		if err != nil || cmdID != uint32(clockID) {
			continue
		}
		clock, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return 0, fmt.Errorf("malformed clock response: %w", err)
		}
		return clock, nil
	}
}

func boolArg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
