package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"PPHub/tools/decode"
	"PPHub/tools/errs"
)

var ErrUnknownEvent = errors.New("unknown event")

// Frame 线上帧：{"event": "...", "data": {...}}，收发同构
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func EncodeFrame(event string, payload any) ([]byte, error) {
	return json.Marshal(outFrame{Event: event, Data: payload})
}

// ParseFrameJSON 解析入站帧并校验必填字段。
// 缺字段返回 errs.ErrValidation，未知事件返回 ErrUnknownEvent。
func ParseFrameJSON(raw []byte) (InboundEvent, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	switch f.Event {
	case EvSendMessage:
		m, err := decode.DecodeJSON[SendMessage](f.Data)
		if err != nil {
			return nil, err
		}
		return m, requireFields(f.Event, "to", m.To, "from", m.From)
	case EvSendGroupMessage:
		m, err := decode.DecodeJSON[SendGroupMessage](f.Data)
		if err != nil {
			return nil, err
		}
		return m, requireFields(f.Event, "groupId", m.GroupID, "from", m.From)
	case EvStartCall:
		m, err := decode.DecodeJSON[StartCall](f.Data)
		if err != nil {
			return nil, err
		}
		return m, requireFields(f.Event, "to", m.To, "from", m.From)
	case EvStartGroupCall:
		m, err := decode.DecodeJSON[StartGroupCall](f.Data)
		if err != nil {
			return nil, err
		}
		return m, requireFields(f.Event, "from", m.From, "groupId", m.GroupID, "meeting.channelName", m.Meeting.ChannelName)
	case EvCallAgoraUID, EvDMAgoraUID:
		p, err := decode.DecodeJSON[PeerUID](f.Data)
		if err != nil {
			return nil, err
		}
		if p.AgoraUID == nil {
			return nil, errs.ErrValidation.WrapMsg("missing field", "event", f.Event, "field", "agoraUid")
		}
		if err := requireFields(f.Event, "targetUserId", p.TargetUserID); err != nil {
			return nil, err
		}
		if f.Event == EvDMAgoraUID {
			return &DMAgoraUID{*p}, nil
		}
		return &CallAgoraUID{*p}, nil
	case EvCallAccepted:
		m, err := decode.DecodeJSON[CallAccepted](f.Data)
		if err != nil {
			return nil, err
		}
		return m, requireFields(f.Event, "to", m.To)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
	}
}

// requireFields 成对传入 字段名/值，任一值为空白即校验失败
func requireFields(event string, kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if strings.TrimSpace(kv[i+1]) == "" {
			return errs.ErrValidation.WrapMsg("missing field", "event", event, "field", kv[i])
		}
	}
	return nil
}
