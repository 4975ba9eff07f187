package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

// DecodeFrame parses one JSON frame and resolves its symbolic type. Codes
// missing from the table decode with an empty Symbol.
func DecodeFrame(types model.EnumTable, line string) (model.Message, error) {
	var f model.Frame
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return model.Message{}, &model.ProtocolError{Frame: line, Err: err}
	}
	if f.Type == nil {
		return model.Message{}, &model.ProtocolError{Frame: line, Err: errors.New("missing type")}
	}
	msg := model.Message{Type: *f.Type, Data: f.Data, Value: f.Value}
	msg.Symbol, _ = types.Name(msg.Type)
	return msg, nil
}

// SplitFrames splits one delivery into its newline separated frames.
func SplitFrames(raw string) []string {
	var frames []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			frames = append(frames, line)
		}
	}
	return frames
}

// onRawFrame dispatches every frame of one delivery in order. A malformed
// frame is logged and skipped.
func (c *Client) onRawFrame(s *session, raw string) {
	for _, line := range SplitFrames(raw) {
		if !c.isCurrent(s) {
			return
		}
		msg, err := DecodeFrame(s.enums.MessageTypes, line)
		if err != nil {
			s.log.Warn().Err(err).Msg("Skipping frame")
			continue
		}
		if s.log.Trace().Enabled() {
			s.log.Trace().Int("type", msg.Type).Str("symbol", msg.Symbol).RawJSON("data", rawOrNull(msg.Data)).Msg("frame")
		}
		c.dispatch(s, msg, 0)
	}
}

func (c *Client) dispatch(s *session, msg model.Message, depth int) {
	switch msg.Symbol {
	case model.MessageLabelCount:
		c.handleLabelCount(s, msg)

	case model.MessageError:
		c.handleDeviceError(s, msg)

	case model.MessageExtKey:
		// key echoes carry nothing for the host

	case model.MessageExtChar:
		c.handleScan(s, msg)

	case model.MessageVariables:
		if fn := c.callbacks.snapshot().variables; fn != nil {
			c.emit(s, "variables", func() { fn(msg.Data) })
		}

	case model.MessageUserData:
		if fn := c.callbacks.snapshot().userData; fn != nil {
			c.emit(s, "userData", func() { fn(msg.Data) })
		}

	case model.MessageArray:
		c.handleArray(s, msg, depth)

	case model.MessageRunState:
		state, ok := c.rawState(s, msg)
		if !ok {
			s.log.Warn().RawJSON("data", rawOrNull(msg.Data)).Msg("Invalid runState payload")
			return
		}
		c.updateStatus(s, func(r *model.RawStatus) { r.CurrentState = state })

	case model.MessageProcessing:
		if v, ok := msg.Flag(); ok {
			c.updateStatus(s, func(r *model.RawStatus) { r.Processing = v })
		}

	case model.MessageMotion:
		if v, ok := msg.Flag(); ok {
			c.updateStatus(s, func(r *model.RawStatus) { r.Motion = v })
		}
	}
}

func (c *Client) handleLabelCount(s *session, msg model.Message) {
	n, ok := msg.Number()
	if !ok {
		s.log.Warn().RawJSON("data", rawOrNull(msg.Data)).Msg("Label count without value")
		return
	}
	remaining := int(n)
	c.updateStatus(s, func(r *model.RawStatus) { r.PrintQty = remaining })

	if job := c.batch.Current(); job != nil && job.LabelCount != nil {
		c.emit(s, "labelCount", func() { job.LabelCount(remaining) })
	}
	if remaining != 0 {
		return
	}
	if fn := c.callbacks.snapshot().printDone; fn != nil {
		c.emit(s, "printDone", fn)
	}
	if job, ok := c.batch.End(); ok && job.Done != nil {
		c.emit(s, "batchDone", job.Done)
	}
}

// handleDeviceError localizes the code and reports it. On a cache miss the
// lookup runs off the dispatch path and the record is held in the session's
// callback queue, so later callbacks still reach the host in arrival order.
// The queue is dropped if the channel is replaced before the lookup ends.
func (c *Client) handleDeviceError(s *session, msg model.Message) {
	n, ok := msg.Number()
	if !ok {
		s.log.Warn().RawJSON("data", rawOrNull(msg.Data)).Msg("Error message without code")
		return
	}
	code := int(n)
	job := c.batch.Current()

	c.mu.Lock()
	errs := c.errs
	c.mu.Unlock()

	if text, ok := errs.Lookup(code); ok {
		c.emit(s, "error", c.errorDelivery(model.ErrorRecord{Code: code, Message: text}, job))
		return
	}

	pending := &heldCallback{name: "error"}
	s.held = append(s.held, pending)
	go func() {
		text, err := errs.Resolve(context.Background(), code)
		if err != nil {
			s.log.Warn().Err(err).Int("code", code).Msg("Failed to localize error")
		}
		c.dispatchMu.Lock()
		defer c.dispatchMu.Unlock()
		if !c.isCurrent(s) {
			s.log.Debug().Int("code", code).Int("held", len(s.held)).Msg("Dropping error for stale channel")
			s.held = nil
			return
		}
		pending.fn = c.errorDelivery(model.ErrorRecord{Code: code, Message: text}, job)
		pending.ready = true
		c.release(s)
	}()
}

func (c *Client) errorDelivery(rec model.ErrorRecord, job *BatchJob) func() {
	return func() {
		if fn := c.callbacks.snapshot().err; fn != nil {
			c.invoke("error", func() { fn(rec) })
		}
		if job != nil && job.Error != nil {
			c.invoke("batchError", func() { job.Error(rec) })
		}
	}
}

// heldCallback is a host callback waiting behind an unresolved error lookup.
type heldCallback struct {
	name  string
	fn    func()
	ready bool
}

// emit runs a host callback now, or queues it while earlier callbacks of the
// session are still held. Callers hold dispatchMu.
func (c *Client) emit(s *session, name string, fn func()) {
	if len(s.held) == 0 {
		c.invoke(name, fn)
		return
	}
	s.held = append(s.held, &heldCallback{name: name, fn: fn, ready: true})
}

// release runs queued callbacks up to the next unresolved one. Callers hold
// dispatchMu.
func (c *Client) release(s *session) {
	for len(s.held) > 0 && s.held[0].ready {
		next := s.held[0]
		s.held[0] = nil
		s.held = s.held[1:]
		c.invoke(next.name, next.fn)
	}
}

func (c *Client) handleScan(s *session, msg model.Message) {
	data, err := decodeChars(msg.Data)
	if err != nil {
		s.log.Warn().Err(err).Msg("Invalid scanner payload")
		return
	}
	if fn := c.callbacks.snapshot().scanner; fn != nil {
		c.emit(s, "scanner", func() { fn(data) })
		return
	}
	c.scans.Push(data)
}

// decodeChars turns a UTF-16 code unit or an array of them into a string.
// Surrogate pairs split across codes are joined.
func decodeChars(raw json.RawMessage) (string, error) {
	var codes []int
	if err := json.Unmarshal(raw, &codes); err != nil {
		var code int
		if err := json.Unmarshal(raw, &code); err != nil {
			return "", fmt.Errorf("decode char codes: %w", err)
		}
		codes = []int{code}
	}
	units := make([]uint16, len(codes))
	for i, code := range codes {
		units[i] = uint16(code)
	}
	return string(utf16.Decode(units)), nil
}

// handleArray dispatches each [type, data] pair as its own message.
func (c *Client) handleArray(s *session, msg model.Message, depth int) {
	if depth >= c.cfg.MaxNesting {
		s.log.Warn().Int("depth", depth).Msg("ARRAY nesting too deep, dropping")
		return
	}
	var items []json.RawMessage
	if err := json.Unmarshal(msg.Data, &items); err != nil {
		s.log.Warn().Err(err).Msg("Invalid ARRAY payload")
		return
	}
	for _, item := range items {
		var pair []json.RawMessage
		if err := json.Unmarshal(item, &pair); err != nil || len(pair) == 0 {
			s.log.Warn().RawJSON("item", rawOrNull(item)).Msg("Invalid ARRAY item")
			continue
		}
		var typ int
		if err := json.Unmarshal(pair[0], &typ); err != nil {
			s.log.Warn().RawJSON("item", rawOrNull(item)).Msg("Invalid ARRAY item type")
			continue
		}
		sub := model.Message{Type: typ}
		if len(pair) > 1 {
			sub.Data = pair[1]
		}
		sub.Symbol, _ = s.enums.MessageTypes.Name(typ)
		if !c.isCurrent(s) {
			return
		}
		c.dispatch(s, sub, depth+1)
	}
}

// rawState reads a runState payload given either as a state name or as a
// status enum code.
func (c *Client) rawState(s *session, msg model.Message) (string, bool) {
	var name string
	if err := json.Unmarshal(msg.Data, &name); err == nil {
		return name, true
	}
	n, ok := msg.Number()
	if !ok {
		return "", false
	}
	if name, ok := s.enums.Status.Name(int(n)); ok {
		return name, true
	}
	return strconv.Itoa(int(n)), true
}

func (c *Client) updateStatus(s *session, update func(*model.RawStatus)) {
	change, changed, ok := c.reducer.Apply(s.epoch, update)
	if !ok {
		s.log.Debug().Msg("Dropping status update for stale channel")
		return
	}
	if changed {
		c.notifyState(s, change)
	}
}

func (c *Client) notifyState(s *session, change StateChange) {
	s.log.Debug().Stringer("from", change.From).Stringer("to", change.To).Msg("Printer state changed")
	if fn := c.callbacks.snapshot().stateChange; fn != nil {
		c.emit(s, "stateChange", func() { fn(change.From, change.To) })
	}
}

// invoke runs a host callback, containing any panic.
func (c *Client) invoke(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Str("callback", name).Interface("panic", r).Msg("Callback panicked")
		}
	}()
	fn()
}

func rawOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
