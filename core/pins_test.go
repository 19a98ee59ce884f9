package core

import (
	"testing"

	"pinio/avr"
	"pinio/gpio"
	"pinio/protocol"
	"pinio/regio"
)

// encodeArgs packs command arguments the way the host encodes them.
func encodeArgs(vals ...uint32) []byte {
	out := protocol.NewScratchOutput()
	for _, v := range vals {
		protocol.EncodeVLQUint(out, v)
	}
	buf := make([]byte, len(out.Result()))
	copy(buf, out.Result())
	return buf
}

func resetPinState(t *testing.T) {
	t.Helper()
	regio.SimReset()
	resetTimers()
	ClearPins()
	InitCoreCommands()
	InitPinCommands()
}

func TestConfigPinOutput(t *testing.T) {
	resetPinState(t)

	args := encodeArgs(3, uint32(avr.PB5), 1, 1, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}

	if !regio.Dir(avr.PB5).HasBits(avr.PB5.Mask()) {
		t.Error("pin not configured as output")
	}
	if !regio.Out(avr.PB5).HasBits(avr.PB5.Mask()) {
		t.Error("initial level not driven high")
	}

	pout := pinOuts[3]
	if pout == nil {
		t.Fatal("pin not registered under its OID")
	}
	if pout.Flags&PF_OUTPUT == 0 || pout.Flags&PF_ON == 0 {
		t.Errorf("flags = %#x, want output and on", pout.Flags)
	}
}

func TestConfigPinInput(t *testing.T) {
	resetPinState(t)

	// Pre-set the direction bit so configuring as input has to clear it.
	gpio.ConfigureOutput(avr.PD2)

	args := encodeArgs(1, uint32(avr.PD2), 0, 0, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}

	if regio.Dir(avr.PD2).HasBits(avr.PD2.Mask()) {
		t.Error("pin still configured as output")
	}
	if pinOuts[1].Flags&PF_OUTPUT != 0 {
		t.Error("input pin carries the output flag")
	}
}

func TestUpdatePin(t *testing.T) {
	resetPinState(t)

	args := encodeArgs(2, uint32(avr.PB0), 1, 0, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}

	args = encodeArgs(2, 1)
	if err := handleUpdatePin(&args); err != nil {
		t.Fatalf("update_pin failed: %v", err)
	}
	if !regio.Out(avr.PB0).HasBits(avr.PB0.Mask()) {
		t.Error("update_pin value=1 did not drive the pin high")
	}

	args = encodeArgs(2, 0)
	if err := handleUpdatePin(&args); err != nil {
		t.Fatalf("update_pin failed: %v", err)
	}
	if regio.Out(avr.PB0).HasBits(avr.PB0.Mask()) {
		t.Error("update_pin value=0 did not drive the pin low")
	}
}

func TestUpdatePinUnknownOID(t *testing.T) {
	resetPinState(t)

	args := encodeArgs(9, 1)
	if err := handleUpdatePin(&args); err != nil {
		t.Errorf("update_pin on unknown OID returned %v, want nil", err)
	}
}

func TestTogglePin(t *testing.T) {
	resetPinState(t)

	args := encodeArgs(0, uint32(avr.PD4), 1, 0, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}

	args = encodeArgs(0)
	if err := handleTogglePin(&args); err != nil {
		t.Fatalf("toggle_pin failed: %v", err)
	}
	if !regio.Out(avr.PD4).HasBits(avr.PD4.Mask()) {
		t.Error("first toggle did not drive the pin high")
	}
	if pinOuts[0].Flags&PF_ON == 0 {
		t.Error("PF_ON not tracked through toggle")
	}

	args = encodeArgs(0)
	if err := handleTogglePin(&args); err != nil {
		t.Fatalf("toggle_pin failed: %v", err)
	}
	if regio.Out(avr.PD4).HasBits(avr.PD4.Mask()) {
		t.Error("second toggle did not return the pin low")
	}
}

func TestQueuePin(t *testing.T) {
	resetPinState(t)
	SetTime(0)

	args := encodeArgs(5, uint32(avr.PB1), 1, 0, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}

	args = encodeArgs(5, 1000, 1)
	if err := handleQueuePin(&args); err != nil {
		t.Fatalf("queue_pin failed: %v", err)
	}

	SetTime(999)
	ProcessTimers()
	if regio.Out(avr.PB1).HasBits(avr.PB1.Mask()) {
		t.Error("queued change applied before its clock time")
	}

	SetTime(1000)
	ProcessTimers()
	if !regio.Out(avr.PB1).HasBits(avr.PB1.Mask()) {
		t.Error("queued change not applied at its clock time")
	}
	if pinOuts[5].Flags&PF_ON == 0 {
		t.Error("PF_ON not tracked through queued update")
	}
}

func TestRequeuePinKeepsOtherTimers(t *testing.T) {
	resetPinState(t)
	SetTime(0)

	args := encodeArgs(1, uint32(avr.PB0), 1, 0, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}
	args = encodeArgs(1, 100, 1)
	if err := handleQueuePin(&args); err != nil {
		t.Fatalf("queue_pin failed: %v", err)
	}

	fired := 0
	other := &Timer{
		WakeTime: 200,
		Handler: func(tm *Timer) uint8 {
			fired++
			return SF_DONE
		},
	}
	ScheduleTimer(other)

	// Re-queue the same OID while its first timer is still scheduled.
	args = encodeArgs(1, 50, 1)
	if err := handleQueuePin(&args); err != nil {
		t.Fatalf("queue_pin failed: %v", err)
	}

	SetTime(300)
	ProcessTimers()

	if fired != 1 {
		t.Errorf("unrelated timer fired %d times, want 1", fired)
	}
	if !regio.Out(avr.PB0).HasBits(avr.PB0.Mask()) {
		t.Error("re-queued change not applied")
	}
}

func TestReconfigurePinCancelsQueuedUpdate(t *testing.T) {
	resetPinState(t)
	SetTime(0)

	args := encodeArgs(3, uint32(avr.PB2), 1, 0, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}
	args = encodeArgs(3, 100, 1)
	if err := handleQueuePin(&args); err != nil {
		t.Fatalf("queue_pin failed: %v", err)
	}

	// Reconfigure the OID onto another pin before the queued change fires.
	args = encodeArgs(3, uint32(avr.PB3), 1, 0, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}

	SetTime(200)
	ProcessTimers()

	if regio.Out(avr.PB2).HasBits(avr.PB2.Mask()) {
		t.Error("stale queued change drove the old pin after reconfigure")
	}
	if regio.Out(avr.PB3).HasBits(avr.PB3.Mask()) {
		t.Error("stale queued change drove the new pin")
	}
}

func TestReadPinResponse(t *testing.T) {
	resetPinState(t)

	out := protocol.NewScratchOutput()
	SetGlobalTransport(protocol.NewTransport(out, func(cmdID uint16, data *[]byte) error {
		return nil
	}))
	defer SetGlobalTransport(nil)

	args := encodeArgs(7, uint32(avr.PD6), 0, 0, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}
	regio.SimSenseInput(avr.PD6, true)

	args = encodeArgs(7)
	if err := handleReadPin(&args); err != nil {
		t.Fatalf("read_pin failed: %v", err)
	}

	frame := out.Result()
	if len(frame) < protocol.FrameLenMin {
		t.Fatalf("no response frame written, got %d bytes", len(frame))
	}
	payload := frame[protocol.FrameHeaderLen : len(frame)-protocol.FrameTrailerLen]

	cmdID, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		t.Fatalf("decoding response command ID: %v", err)
	}
	want, ok := GetGlobalRegistry().GetCommandByName("pin_state")
	if !ok {
		t.Fatal("pin_state not registered")
	}
	if cmdID != uint32(want.ID) {
		t.Errorf("response command ID = %d, want %d", cmdID, want.ID)
	}

	oid, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		t.Fatalf("decoding oid: %v", err)
	}
	value, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		t.Fatalf("decoding value: %v", err)
	}
	if oid != 7 || value != 1 {
		t.Errorf("pin_state oid=%d value=%d, want oid=7 value=1", oid, value)
	}
}

func TestEmergencyStopRestoresDefaults(t *testing.T) {
	resetPinState(t)

	// default high, currently driven low
	args := encodeArgs(1, uint32(avr.PB2), 1, 0, 1)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}
	// default low, currently driven high
	args = encodeArgs(2, uint32(avr.PB3), 1, 1, 0)
	if err := handleConfigPin(&args); err != nil {
		t.Fatalf("config_pin failed: %v", err)
	}

	args = encodeArgs()
	if err := handleEmergencyStop(&args); err != nil {
		t.Fatalf("emergency_stop failed: %v", err)
	}

	if !regio.Out(avr.PB2).HasBits(avr.PB2.Mask()) {
		t.Error("default-high pin not restored to high")
	}
	if regio.Out(avr.PB3).HasBits(avr.PB3.Mask()) {
		t.Error("default-low pin not restored to low")
	}
	if !IsShutdown() {
		t.Error("firmware not in shutdown state")
	}

	ResetFirmwareState()
	if IsShutdown() {
		t.Error("shutdown state survived reset")
	}
	if len(pinOuts) != 0 {
		t.Error("pin configuration survived reset")
	}
}

func TestDispatchConfigAndUpdateThroughRegistry(t *testing.T) {
	resetPinState(t)

	cfg, ok := GetGlobalRegistry().GetCommandByName("config_pin")
	if !ok {
		t.Fatal("config_pin not registered")
	}
	upd, ok := GetGlobalRegistry().GetCommandByName("update_pin")
	if !ok {
		t.Fatal("update_pin not registered")
	}

	args := encodeArgs(4, uint32(avr.PB4), 1, 0, 0)
	if err := DispatchCommand(cfg.ID, &args); err != nil {
		t.Fatalf("dispatching config_pin: %v", err)
	}
	args = encodeArgs(4, 1)
	if err := DispatchCommand(upd.ID, &args); err != nil {
		t.Fatalf("dispatching update_pin: %v", err)
	}

	regio.SimLatchInputs(avr.PB4)
	if !gpio.Read(avr.PB4) {
		t.Error("pin does not read back high after dispatched update")
	}
}
