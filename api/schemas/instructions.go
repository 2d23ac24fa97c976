package schemas

import "strings"

// -- Instruction Schemas --

// ActionType identifies one kind of atomic automation step.
type ActionType string

const (
	ActionOpenApp      ActionType = "OPEN_APP"
	ActionOpenURL      ActionType = "OPEN_URL"
	ActionWebSearch    ActionType = "WEB_SEARCH"
	ActionClick        ActionType = "CLICK"
	ActionTypeText     ActionType = "TYPE"
	ActionScreenshot   ActionType = "SCREENSHOT"
	ActionWait         ActionType = "WAIT"
	ActionCopy         ActionType = "COPY"
	ActionPaste        ActionType = "PASTE"
	ActionSetClipboard ActionType = "SET_CLIPBOARD"
	ActionScroll       ActionType = "SCROLL"
	ActionPressKey     ActionType = "PRESS_KEY"
	ActionHotkey       ActionType = "HOTKEY"
)

// webActionPrefix marks actions that require a live browser driver.
const webActionPrefix = "WEB_"

// Instruction is one atomic unit of automation: an action tag plus its
// parameter set. Instructions are immutable once produced; the executor only
// reads them.
type Instruction struct {
	Action ActionType `json:"action"`
	Params Params     `json:"params,omitempty"`
}

// IsWeb reports whether the instruction needs the browser capability.
func (i Instruction) IsWeb() bool {
	return strings.HasPrefix(string(i.Action), webActionPrefix)
}

// Sequence is an ordered list of instructions representing one user task.
// Execution order is exactly list order.
type Sequence []Instruction

// NeedsBrowser reports whether any instruction in the sequence carries the
// WEB_ prefix. The executor uses this to acquire the browser handle eagerly,
// before the first step runs.
func (s Sequence) NeedsBrowser() bool {
	for _, inst := range s {
		if inst.IsWeb() {
			return true
		}
	}
	return false
}

// Params maps parameter names to primitive values (string, number, bool, or
// list of strings). JSON decoding produces float64 for every number, so the
// accessors below coerce rather than type-assert.
type Params map[string]any

// String returns the named parameter as a string, or def when absent or not
// a string.
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Float returns the named parameter as a float64, accepting any numeric type
// the decoder may have produced.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Int returns the named parameter as an int.
func (p Params) Int(key string, def int) int {
	if _, ok := p[key]; !ok {
		return def
	}
	return int(p.Float(key, float64(def)))
}

// Bool returns the named parameter as a bool, or def when absent.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// StringSlice returns the named parameter as a list of strings. It accepts
// both []string and the []any a JSON decode produces.
func (p Params) StringSlice(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Has reports whether the parameter is present at all.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}
