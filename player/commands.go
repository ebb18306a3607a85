package player

import (
	"encoding/json"
	"fmt"
)

// CommandKind identifies an instruction for the media sink
type CommandKind int

const (
	CmdSetSource CommandKind = iota
	CmdPlay
	CmdPause
	CmdSeekTo
	CmdSetVolume
)

// String returns the wire name of the command
func (k CommandKind) String() string {
	switch k {
	case CmdSetSource:
		return "setSource"
	case CmdPlay:
		return "play"
	case CmdPause:
		return "pause"
	case CmdSeekTo:
		return "seekTo"
	case CmdSetVolume:
		return "setVolume"
	default:
		return "unknown"
	}
}

// Command is sent to the sink without waiting for an acknowledgement
type Command struct {
	Kind       CommandKind
	Source     string
	Generation uint64
	Seconds    float64
	Volume     float64
}

// MarshalJSON encodes only the fields the command kind uses; the kind itself
// travels as the message type.
func (c Command) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CmdSetSource:
		return json.Marshal(struct {
			Source     string `json:"src"`
			Generation uint64 `json:"generation"`
		}{c.Source, c.Generation})
	case CmdSeekTo:
		return json.Marshal(struct {
			Generation uint64  `json:"generation"`
			Seconds    float64 `json:"seconds"`
		}{c.Generation, c.Seconds})
	case CmdSetVolume:
		return json.Marshal(struct {
			Volume float64 `json:"volume"`
		}{c.Volume})
	default:
		return json.Marshal(struct {
			Generation uint64 `json:"generation"`
		}{c.Generation})
	}
}

func (c Command) String() string {
	switch c.Kind {
	case CmdSetSource:
		return fmt.Sprintf("setSource(%s, gen=%d)", c.Source, c.Generation)
	case CmdSeekTo:
		return fmt.Sprintf("seekTo(%.2f)", c.Seconds)
	case CmdSetVolume:
		return fmt.Sprintf("setVolume(%.2f)", c.Volume)
	default:
		return c.Kind.String()
	}
}

// Sink is the media element the controller drives
type Sink interface {
	Apply(cmd Command)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(cmd Command)

func (f SinkFunc) Apply(cmd Command) { f(cmd) }
