package types

import "encoding/json"

type stopKind uint8

const (
	stopOther stopKind = iota
	stopEndTurn
	stopToolUse
	stopMaxTokens
)

// StopReason is a terminal state normalized across providers. Values are comparable;
// two Other reasons are equal when their raw strings are equal.
type StopReason struct {
	kind stopKind
	raw  string
}

// Normalized stop reasons.
var (
	StopEndTurn   = StopReason{kind: stopEndTurn}
	StopToolUse   = StopReason{kind: stopToolUse}
	StopMaxTokens = StopReason{kind: stopMaxTokens}
)

// StopOther wraps a provider value without a normalized equivalent. The string is
// opaque and must not be interpreted.
func StopOther(raw string) StopReason {
	return StopReason{kind: stopOther, raw: raw}
}

// StopReasonFromAnthropic normalizes a structured-format stop_reason.
func StopReasonFromAnthropic(s string) StopReason {
	switch s {
	case "end_turn":
		return StopEndTurn
	case "tool_use":
		return StopToolUse
	case "max_tokens":
		return StopMaxTokens
	default:
		return StopOther(s)
	}
}

// StopReasonFromOpenAI normalizes a flat-format finish_reason.
func StopReasonFromOpenAI(s string) StopReason {
	switch s {
	case "stop":
		return StopEndTurn
	case "tool_calls":
		return StopToolUse
	case "length":
		return StopMaxTokens
	default:
		return StopOther(s)
	}
}

// Anthropic returns the structured-format string.
func (r StopReason) Anthropic() string {
	switch r.kind {
	case stopEndTurn:
		return "end_turn"
	case stopToolUse:
		return "tool_use"
	case stopMaxTokens:
		return "max_tokens"
	default:
		return r.raw
	}
}

// OpenAI returns the flat-format string.
func (r StopReason) OpenAI() string {
	switch r.kind {
	case stopEndTurn:
		return "stop"
	case stopToolUse:
		return "tool_calls"
	case stopMaxTokens:
		return "length"
	default:
		return r.raw
	}
}

// IsToolUse reports whether the model stopped to call tools.
func (r StopReason) IsToolUse() bool {
	return r.kind == stopToolUse
}

// IsOther reports whether r carries an unrecognized provider value.
func (r StopReason) IsOther() bool {
	return r.kind == stopOther
}

func (r StopReason) String() string {
	return r.Anthropic()
}

// MarshalJSON encodes the structured-format string.
func (r StopReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Anthropic())
}

// UnmarshalJSON decodes a structured-format string.
func (r *StopReason) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = StopReasonFromAnthropic(s)
	return nil
}
