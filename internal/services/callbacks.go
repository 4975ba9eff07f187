package services

import (
	"encoding/json"
	"sync"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

// Host callbacks. Each is optional; a nil callback is not invoked.
type (
	PrintDoneFunc   func()
	ErrorFunc       func(rec model.ErrorRecord)
	ScannerFunc     func(data string)
	StateChangeFunc func(from, to model.PrinterState)
	VariablesFunc   func(vars json.RawMessage)
	UserDataFunc    func(data json.RawMessage)
	DisconnectFunc  func(err error)
)

type callbacks struct {
	printDone   PrintDoneFunc
	err         ErrorFunc
	scanner     ScannerFunc
	stateChange StateChangeFunc
	variables   VariablesFunc
	userData    UserDataFunc
	disconnect  DisconnectFunc
}

type callbackSet struct {
	mu sync.RWMutex
	cb callbacks
}

func (c *Client) SetPrintDoneCallback(fn PrintDoneFunc) {
	c.callbacks.mu.Lock()
	defer c.callbacks.mu.Unlock()
	c.callbacks.cb.printDone = fn
}

func (c *Client) SetErrorCallback(fn ErrorFunc) {
	c.callbacks.mu.Lock()
	defer c.callbacks.mu.Unlock()
	c.callbacks.cb.err = fn
}

// SetScannerCallback switches scan delivery to fn. While a callback is set,
// scans are not buffered; passing nil resumes buffering. Entries already in
// the buffer are left untouched either way.
func (c *Client) SetScannerCallback(fn ScannerFunc) {
	c.callbacks.mu.Lock()
	defer c.callbacks.mu.Unlock()
	c.callbacks.cb.scanner = fn
}

func (c *Client) SetStateChangeCallback(fn StateChangeFunc) {
	c.callbacks.mu.Lock()
	defer c.callbacks.mu.Unlock()
	c.callbacks.cb.stateChange = fn
}

func (c *Client) SetVariablesCallback(fn VariablesFunc) {
	c.callbacks.mu.Lock()
	defer c.callbacks.mu.Unlock()
	c.callbacks.cb.variables = fn
}

func (c *Client) SetUserDataCallback(fn UserDataFunc) {
	c.callbacks.mu.Lock()
	defer c.callbacks.mu.Unlock()
	c.callbacks.cb.userData = fn
}

// SetDisconnectCallback is called when the push channel drops on its own.
// It is not called for Close or for a channel replaced by Connect.
func (c *Client) SetDisconnectCallback(fn DisconnectFunc) {
	c.callbacks.mu.Lock()
	defer c.callbacks.mu.Unlock()
	c.callbacks.cb.disconnect = fn
}

func (s *callbackSet) snapshot() callbacks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cb
}
