// pinio-host is an interactive console for a pinio firmware: it connects
// over serial, pulls the data dictionary, and drives pins by name.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/log"

	"pinio/host/mcu"
	"pinio/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "serial device path")
	baud    = flag.Int("baud", 250000, "baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "enable debug output")
)

func main() {
	flag.Parse()

	cfg := log.DefaultConfig()
	if *verbose {
		cfg.Level = log.DebugLevel
	}
	logger := log.NewWithConfig(cfg)

	mcuConn := mcu.NewMCU()

	logger.Info("connecting", log.String("device", *device))

	serialCfg := serial.DefaultConfig(*device)
	serialCfg.Baud = *baud
	if err := mcuConn.ConnectWithConfig(serialCfg); err != nil {
		logger.Fatal("failed to connect", log.Err(err))
	}
	defer mcuConn.Close()

	if err := mcuConn.RetrieveDictionary(); err != nil {
		logger.Fatal("failed to retrieve dictionary", log.Err(err))
	}

	dict := mcuConn.Dictionary()
	logger.Info("connected",
		log.String("firmware", dict.Version),
		log.String("mcu", dict.MCU))

	fmt.Println("Type 'help' for available commands, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if err := runCommand(mcuConn, parts); err == errQuit {
			return
		} else if err != nil {
			logger.Error("command failed", log.Err(err))
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Fatal("reading input", log.Err(err))
	}
}

var errQuit = fmt.Errorf("quit")

func runCommand(m *mcu.MCU, parts []string) error {
	switch parts[0] {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		printHelp()
		return nil

	case "dict":
		printDictionary(m.Dictionary())
		return nil

	case "raw":
		raw := m.DictionaryRaw()
		fmt.Printf("raw dictionary (%d bytes):\n%s\n", len(raw), string(raw))
		return nil

	case "pins":
		names := m.Dictionary().PinNames()
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(" ", name)
		}
		return nil

	case "clock":
		clock, err := m.GetClock()
		if err != nil {
			return err
		}
		fmt.Printf("clock: %d\n", clock)
		return nil

	case "config":
		// config <oid> <pin> out|in [value] [default]
		if len(parts) < 4 {
			return fmt.Errorf("usage: config <oid> <pin> out|in [value] [default]")
		}
		oid, err := parseOID(parts[1])
		if err != nil {
			return err
		}
		output := parts[3] == "out"
		value := len(parts) > 4 && parts[4] == "1"
		defaultValue := len(parts) > 5 && parts[5] == "1"
		return m.ConfigPin(oid, parts[2], output, value, defaultValue)

	case "set":
		if len(parts) != 3 {
			return fmt.Errorf("usage: set <oid> 0|1")
		}
		oid, err := parseOID(parts[1])
		if err != nil {
			return err
		}
		return m.SetPin(oid, parts[2] == "1")

	case "toggle":
		if len(parts) != 2 {
			return fmt.Errorf("usage: toggle <oid>")
		}
		oid, err := parseOID(parts[1])
		if err != nil {
			return err
		}
		return m.TogglePin(oid)

	case "queue":
		if len(parts) != 4 {
			return fmt.Errorf("usage: queue <oid> <clock> 0|1")
		}
		oid, err := parseOID(parts[1])
		if err != nil {
			return err
		}
		clock, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil {
			return fmt.Errorf("bad clock value %q: %w", parts[2], err)
		}
		return m.QueuePin(oid, uint32(clock), parts[3] == "1")

	case "read":
		if len(parts) != 2 {
			return fmt.Errorf("usage: read <oid>")
		}
		oid, err := parseOID(parts[1])
		if err != nil {
			return err
		}
		value, err := m.ReadPin(oid)
		if err != nil {
			return err
		}
		if value {
			fmt.Println("high")
		} else {
			fmt.Println("low")
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q (type 'help')", parts[0])
	}
}

func parseOID(s string) (uint8, error) {
	oid, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("bad oid %q: %w", s, err)
	}
	return uint8(oid), nil
}

func printHelp() {
	fmt.Println(`Commands:
  config <oid> <pin> out|in [value] [default]  configure a pin, e.g. "config 1 PB5 out 0 0"
  set <oid> 0|1                                drive a configured output
  toggle <oid>                                 invert a configured output
  queue <oid> <clock> 0|1                      schedule a level change
  read <oid>                                   read the sensed pin level
  clock                                        query the MCU clock
  pins                                         list pin names the firmware exposes
  dict                                         print the dictionary summary
  raw                                          print the raw dictionary JSON
  quit                                         exit`)
}

func printDictionary(dict *mcu.Dictionary) {
	fmt.Printf("firmware: %s\nmcu: %s\nclock_freq: %d\n",
		dict.Version, dict.MCU, dict.ClockFreq)

	fmt.Printf("\ncommands (%d):\n", len(dict.Commands))
	printDeclarations(dict.Commands)

	fmt.Printf("\nresponses (%d):\n", len(dict.Responses))
	printDeclarations(dict.Responses)

	if pins, ok := dict.Enumerations["pin"]; ok {
		fmt.Printf("\npins: %d\n", len(pins))
	}
}

func printDeclarations(decls map[string]int) {
	keys := make([]string, 0, len(decls))
	for key := range decls {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return decls[keys[i]] < decls[keys[j]] })

	for _, key := range keys {
		fmt.Printf("  [%d] %s\n", decls[key], key)
	}
}
