package core

import (
	"sync"
)

// Enumeration maps symbolic names to wire values, like pin names to
// packed pin addresses. A name missing from the map cannot be sent: the
// host refuses it before anything reaches the wire.
type Enumeration struct {
	Name   string
	Values map[string]uint32
}

// Dictionary is the introspection data sent to the host in identify
// chunks: protocol version, firmware constants, enumerations, and the
// command and response declarations with their wire IDs.
type Dictionary struct {
	mu           sync.RWMutex
	constants    map[string]string
	enumerations map[string]*Enumeration
	commandReg   *CommandRegistry
	version      string
	mcu          string
	clockFreq    uint32
	cached       []byte
}

var globalDictionary = NewDictionary(globalRegistry)

func NewDictionary(cmdReg *CommandRegistry) *Dictionary {
	return &Dictionary{
		constants:    make(map[string]string),
		enumerations: make(map[string]*Enumeration),
		commandReg:   cmdReg,
		version:      "pinio-0.1.0",
		mcu:          "unknown",
		clockFreq:    16000000,
	}
}

// RegisterConstant adds a constant to the global dictionary.
func RegisterConstant(name string, value string) {
	globalDictionary.AddConstant(name, value)
}

// RegisterEnumeration adds an enumeration to the global dictionary.
func RegisterEnumeration(name string, values map[string]uint32) {
	globalDictionary.AddEnumeration(name, values)
}

func (d *Dictionary) AddConstant(name string, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = value
	d.cached = nil
}

// AddEnumeration stores a copy of values so a caller mutating its map
// later cannot corrupt the cached dictionary.
func (d *Dictionary) AddEnumeration(name string, values map[string]uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	valuesCopy := make(map[string]uint32, len(values))
	for k, v := range values {
		valuesCopy[k] = v
	}

	d.enumerations[name] = &Enumeration{
		Name:   name,
		Values: valuesCopy,
	}
	d.cached = nil
}

// SetMCU records the target name and clock frequency reported to the host.
func (d *Dictionary) SetMCU(mcu string, clockFreq uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mcu = mcu
	d.clockFreq = clockFreq
	d.cached = nil
}

func (d *Dictionary) SetVersion(version string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	d.cached = nil
}

// Build generates and caches the dictionary. Call once after all
// commands, constants and enumerations are registered.
func (d *Dictionary) Build() {
	commands, responses := d.commandReg.Declarations()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = d.buildJSONLocked(commands, responses)
}

// Generate returns the dictionary bytes, building them if Build was not
// called.
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cached
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}

	commands, responses := d.commandReg.Declarations()
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buildJSONLocked(commands, responses)
}

// buildJSONLocked writes the dictionary JSON by hand. The format is
// fixed and flat, and building it with appends keeps encoding/json and
// reflection out of the firmware image.
func (d *Dictionary) buildJSONLocked(commands map[string]int, responses map[string]int) []byte {
	result := make([]byte, 0, 1024)

	result = append(result, []byte(`{"version":"`)...)
	result = append(result, []byte(d.version)...)
	result = append(result, []byte(`","mcu":"`)...)
	result = append(result, []byte(d.mcu)...)
	result = append(result, []byte(`","clock_freq":`)...)
	result = append(result, []byte(utoa(d.clockFreq))...)
	result = append(result, []byte(`,"config":{`)...)

	first := true
	for _, name := range sortedKeys(d.constants) {
		if !first {
			result = append(result, ',')
		}
		result = appendJSONString(result, name)
		result = append(result, ':')
		result = appendJSONString(result, d.constants[name])
		first = false
	}
	result = append(result, []byte(`},"commands":{`)...)
	result = appendDeclarations(result, commands)
	result = append(result, []byte(`},"responses":{`)...)
	result = appendDeclarations(result, responses)
	result = append(result, '}')

	if len(d.enumerations) > 0 {
		result = append(result, []byte(`,"enumerations":{`)...)

		enumNames := make([]string, 0, len(d.enumerations))
		for name := range d.enumerations {
			enumNames = append(enumNames, name)
		}
		sortStrings(enumNames)

		firstEnum := true
		for _, name := range enumNames {
			enum := d.enumerations[name]
			if !firstEnum {
				result = append(result, ',')
			}
			result = appendJSONString(result, name)
			result = append(result, []byte(`:{`)...)

			firstValue := true
			for _, value := range sortedKeys(enum.Values) {
				if !firstValue {
					result = append(result, ',')
				}
				result = appendJSONString(result, value)
				result = append(result, ':')
				result = append(result, []byte(utoa(enum.Values[value]))...)
				firstValue = false
			}
			result = append(result, '}')
			firstEnum = false
		}
		result = append(result, '}')
	}

	result = append(result, '}')
	return result
}

// appendDeclarations writes a "name format" -> ID object, sorted by ID so
// the output is stable across builds.
func appendDeclarations(result []byte, decls map[string]int) []byte {
	byID := make([]string, 0, len(decls))
	for key := range decls {
		byID = append(byID, key)
	}
	for i := 0; i < len(byID); i++ {
		for j := i + 1; j < len(byID); j++ {
			if decls[byID[i]] > decls[byID[j]] {
				byID[i], byID[j] = byID[j], byID[i]
			}
		}
	}

	first := true
	for _, key := range byID {
		if !first {
			result = append(result, ',')
		}
		result = appendJSONString(result, key)
		result = append(result, ':')
		result = append(result, []byte(itoa(decls[key]))...)
		first = false
	}
	return result
}

func appendJSONString(result []byte, s string) []byte {
	result = append(result, '"')
	result = append(result, []byte(s)...)
	result = append(result, '"')
	return result
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys
}

// sortStrings is an in-place insertion sort. The dictionary holds tens
// of entries, not thousands, and skipping the sort package keeps the
// firmware image small.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// GetChunk returns count bytes of the dictionary starting at offset.
// Returns a copy so the cached bytes never alias transmit buffers.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()

	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}

	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}

// GetGlobalDictionary returns the global dictionary instance.
func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}
