package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"a4blend/player"
	"a4blend/types"
	"a4blend/websocket"

	"go.uber.org/zap"
)

// ErrUnknownMessage is returned for player messages with an unrecognised type
var ErrUnknownMessage = errors.New("unknown player message")

// MessageState is the message type carrying a player state snapshot
const MessageState = "state"

// WebSocketSink forwards controller commands to every browser on the player topic
type WebSocketSink struct {
	hub websocket.Hub
}

// NewWebSocketSink creates a sink backed by the hub
func NewWebSocketSink(hub websocket.Hub) *WebSocketSink {
	return &WebSocketSink{hub: hub}
}

// Apply broadcasts cmd. Delivery is not acknowledged.
func (s *WebSocketSink) Apply(cmd player.Command) {
	s.hub.Broadcast(types.TopicPlayer, cmd.Kind.String(), cmd)
}

type generationPayload struct {
	Generation uint64 `json:"generation"`
}

// timeUpdatePayload mirrors the media element: duration is null while unknown
type timeUpdatePayload struct {
	Generation uint64   `json:"generation"`
	Current    *float64 `json:"current"`
	Duration   *float64 `json:"duration"`
}

type positionPayload struct {
	Position int `json:"position"`
}

type queryPayload struct {
	Query string `json:"query"`
}

type ratioPayload struct {
	Ratio float64 `json:"ratio"`
}

type volumePayload struct {
	Volume float64 `json:"volume"`
}

// DecodePlayerEvent turns a browser message into a controller event. Both
// sink notifications and user commands arrive this way.
func DecodePlayerEvent(msg types.Message) (player.Event, error) {
	switch msg.Type {
	case player.EventTimeUpdate.String():
		var p timeUpdatePayload
		if err := decodePayload(msg, &p); err != nil {
			return player.Event{}, err
		}
		return player.TimeUpdate(p.Generation, valueOr(p.Current, 0), valueOr(p.Duration, math.NaN())), nil

	case player.EventEnded.String():
		var p generationPayload
		if err := decodePayload(msg, &p); err != nil {
			return player.Event{}, err
		}
		return player.Ended(p.Generation), nil

	case player.EventPlayFailed.String():
		var p generationPayload
		if err := decodePayload(msg, &p); err != nil {
			return player.Event{}, err
		}
		return player.PlayFailed(p.Generation), nil

	case player.EventTogglePlayPause.String():
		return player.TogglePlayPause(), nil
	case player.EventNext.String():
		return player.Next(), nil
	case player.EventPrevious.String():
		return player.Previous(), nil
	case player.EventToggleMute.String():
		return player.ToggleMute(), nil

	case player.EventSelectFromSearch.String():
		var p positionPayload
		if err := decodePayload(msg, &p); err != nil {
			return player.Event{}, err
		}
		return player.SelectFromSearch(p.Position), nil

	case player.EventSetQuery.String():
		var p queryPayload
		if err := decodePayload(msg, &p); err != nil {
			return player.Event{}, err
		}
		return player.SetQuery(p.Query), nil

	case player.EventSeek.String():
		var p ratioPayload
		if err := decodePayload(msg, &p); err != nil {
			return player.Event{}, err
		}
		return player.Seek(p.Ratio), nil

	case player.EventSetVolume.String():
		var p volumePayload
		if err := decodePayload(msg, &p); err != nil {
			return player.Event{}, err
		}
		return player.SetVolume(p.Volume), nil
	}

	return player.Event{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
}

func decodePayload(msg types.Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: %w", msg.Type, err)
	}
	return nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

type outbound struct {
	msgType string
	payload any
}

// syncMessages brings a freshly connected browser up to date: the current
// source and volume for its media element, play when the session is playing,
// then a state snapshot.
func syncMessages(logger *zap.Logger, state player.State) []types.Message {
	var pending []outbound
	if entry, ok := state.CurrentEntry(); ok {
		cmd := player.Command{Kind: player.CmdSetSource, Source: entry.SourceRef, Generation: state.Generation}
		pending = append(pending, outbound{cmd.Kind.String(), cmd})
		if state.Playing {
			play := player.Command{Kind: player.CmdPlay, Generation: state.Generation}
			pending = append(pending, outbound{play.Kind.String(), play})
		}
	}
	volume := player.Command{Kind: player.CmdSetVolume, Volume: state.Volume}
	pending = append(pending,
		outbound{volume.Kind.String(), volume},
		outbound{MessageState, state.View()},
	)

	msgs := make([]types.Message, 0, len(pending))
	for _, p := range pending {
		msg, err := websocket.NewMessage(types.TopicPlayer, p.msgType, p.payload)
		if err != nil {
			logger.Error("Failed to encode player sync message", zap.String("type", p.msgType), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
