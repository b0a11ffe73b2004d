package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// 解析失败的分类；均为单条消息级错误，不影响连接本身
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMissingField     = errors.New("missing field")
	ErrWrongType        = errors.New("wrong type")
	ErrUnknownAction    = errors.New("unknown action")
)

// 双工帧字段名，示例：{"action":"shoot","value":800}
const (
	FieldAction = "action"
	FieldValue  = "value"
	// FieldPeak 请求/响应模式下的请求体字段，示例：{"peak":800}
	FieldPeak = "peak"
)

// 动作名（双工帧的 action 字段）
const (
	ActionNameRight = "right"
	ActionNameLeft  = "left"
	ActionNameShoot = "shoot"
)

// ControlMessage 出站方向使用的双工帧结构（send 命令、测试）
type ControlMessage struct {
	Action string `json:"action"`
	Value  int64  `json:"value"`
}

// PeakBody 请求/响应模式的请求体
type PeakBody struct {
	Peak int64 `json:"peak"`
}

// KindForAction 三路判别表：right/left/shoot → Intensity*
func KindForAction(action string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionNameRight:
		return EventIntensityRight, nil
	case ActionNameLeft:
		return EventIntensityLeft, nil
	case ActionNameShoot:
		return EventIntensityShoot, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

// DecodeFrame 解析一条双工文本帧为 ControlEvent
func DecodeFrame(payload []byte) (ControlEvent, error) {
	fields, err := decodeObject(payload)
	if err != nil {
		return ControlEvent{}, err
	}
	rawAction, ok := fields[FieldAction]
	if !ok {
		return ControlEvent{}, fmt.Errorf("%w: %q", ErrMissingField, FieldAction)
	}
	rawValue, ok := fields[FieldValue]
	if !ok {
		return ControlEvent{}, fmt.Errorf("%w: %q", ErrMissingField, FieldValue)
	}
	var action string
	if err := json.Unmarshal(rawAction, &action); err != nil {
		return ControlEvent{}, fmt.Errorf("%w: %q must be a string", ErrWrongType, FieldAction)
	}
	value, err := decodeMagnitude(FieldValue, rawValue)
	if err != nil {
		return ControlEvent{}, err
	}
	kind, err := KindForAction(action)
	if err != nil {
		return ControlEvent{}, err
	}
	return ControlEvent{Kind: kind, Value: value}, nil
}

// DecodePeakBody 解析请求体 {"peak":N}，判别符来自请求路径
func DecodePeakBody(action string, body []byte) (ControlEvent, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return ControlEvent{}, err
	}
	rawPeak, ok := fields[FieldPeak]
	if !ok {
		return ControlEvent{}, fmt.Errorf("%w: %q", ErrMissingField, FieldPeak)
	}
	value, err := decodeMagnitude(FieldPeak, rawPeak)
	if err != nil {
		return ControlEvent{}, err
	}
	kind, err := KindForAction(action)
	if err != nil {
		return ControlEvent{}, err
	}
	return ControlEvent{Kind: kind, Value: value}, nil
}

func decodeObject(payload []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	// "null" 可以被解析为 nil map，也算结构非法
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}
	return fields, nil
}

// decodeMagnitude 只接受 JSON 整数字面量（与设备端一致，不接受小数或字符串）
func decodeMagnitude(field string, raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, fmt.Errorf("%w: %q must be a number", ErrWrongType, field)
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q must be an integer", ErrWrongType, field)
	}
	return v, nil
}

// nackReason 负确认文本中使用的简短原因
func nackReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedPayload):
		return "malformed payload"
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrWrongType), errors.Is(err, ErrUnknownAction):
		return err.Error()
	default:
		return "internal error"
	}
}

// codecErrorLabel 指标标签
func codecErrorLabel(err error) string {
	switch {
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrWrongType):
		return "wrong_type"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	default:
		return "other"
	}
}
