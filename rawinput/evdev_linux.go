//go:build linux

package rawinput

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"hotbind/keybind"
)

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
	keyLCtrl   = 29
	keyRCtrl   = 97
	keyLShift  = 42
	keyRShift  = 54
	keyLAlt    = 56
	keyRAlt    = 100
)

// input_event: struct timeval followed by type (2), code (2), value (4)
var (
	timevalSize    = int(unsafe.Sizeof(unix.Timeval{}))
	inputEventSize = timevalSize + 8
)

const pollTimeoutMs = 250

// EvdevHook reads key events straight from /dev/input. The user must be in
// the 'input' group. It works without an X server.
type EvdevHook struct {
	devDir string
	sysDir string
}

func NewEvdevHook() *EvdevHook {
	return &EvdevHook{devDir: "/dev/input", sysDir: "/sys/class/input"}
}

type evdevEvent struct {
	code  uint16
	value int32
}

func (h *EvdevHook) Run(ctx context.Context, dispatch func(Event), ready func()) error {
	keyboards, err := h.findKeyboards()
	if err != nil {
		return fmt.Errorf("%w: finding keyboards: %w", keybind.ErrHookStart, err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("%w: no keyboard devices found (is user in 'input' group?)", keybind.ErrHookStart)
	}

	var files []*os.File
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)", keybind.ErrHookStart)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan evdevEvent, 64)
	var wg sync.WaitGroup
	for _, f := range files {
		wg.Add(1)
		go func(f *os.File) {
			defer wg.Done()
			defer f.Close()
			readEvents(ctx, f, events)
		}(f)
	}
	defer wg.Wait()
	ready()

	readersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(readersDone)
	}()

	held := make(map[uint16]bool)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-readersDone:
			if ctx.Err() != nil {
				return nil
			}
			return errors.New("all keyboard devices closed")
		case ev := <-events:
			switch ev.value {
			case keyPress, keyRepeat:
				held[ev.code] = true
				dispatch(Event{Code: ev.code, Mask: heldModifiers(held), Pressed: true})
			case keyRelease:
				delete(held, ev.code)
				dispatch(Event{Code: ev.code, Mask: heldModifiers(held)})
			}
		}
	}
}

func heldModifiers(held map[uint16]bool) keybind.Modifiers {
	var m keybind.Modifiers
	if held[keyLShift] || held[keyRShift] {
		m |= keybind.ModShift
	}
	if held[keyLCtrl] || held[keyRCtrl] {
		m |= keybind.ModCtrl
	}
	if held[keyLAlt] || held[keyRAlt] {
		m |= keybind.ModAlt
	}
	return m
}

func readEvents(ctx context.Context, f *os.File, out chan<- evdevEvent) {
	buf := make([]byte, inputEventSize*16)
	fds := []unix.PollFd{{Fd: int32(f.Fd()), Events: unix.POLLIN}}

	for ctx.Err() == nil {
		n, err := unix.Poll(fds, pollTimeoutMs)
		if errors.Is(err, unix.EINTR) || n == 0 {
			continue
		}
		if err != nil {
			return
		}

		n, err = f.Read(buf)
		if err != nil {
			return
		}
		for _, ev := range decodeEvents(buf[:n]) {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func decodeEvents(buf []byte) []evdevEvent {
	var out []evdevEvent
	for i := 0; i+inputEventSize <= len(buf); i += inputEventSize {
		evType := binary.LittleEndian.Uint16(buf[i+timevalSize:])
		if evType != evKey {
			continue
		}
		out = append(out, evdevEvent{
			code:  binary.LittleEndian.Uint16(buf[i+timevalSize+2:]),
			value: int32(binary.LittleEndian.Uint32(buf[i+timevalSize+4:])),
		})
	}
	return out
}

func (h *EvdevHook) findKeyboards() ([]string, error) {
	entries, err := os.ReadDir(h.devDir)
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if h.isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join(h.devDir, e.Name()))
		}
	}
	return keyboards, nil
}

func (h *EvdevHook) isKeyboard(eventName string) bool {
	capsPath := filepath.Join(h.sysDir, eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	// Real keyboards have long key capability bitmaps
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// DiagnoseEvdev checks evdev keyboard access and returns a status message.
func DiagnoseEvdev() (string, error) {
	h := NewEvdevHook()
	keyboards, err := h.findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
