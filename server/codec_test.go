package server

import (
	"errors"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    ControlEvent
		wantErr error
	}{
		{"right", `{"action":"right","value":800}`, ControlEvent{Kind: EventIntensityRight, Value: 800}, nil},
		{"left", `{"action":"left","value":12}`, ControlEvent{Kind: EventIntensityLeft, Value: 12}, nil},
		{"shoot", `{"action":"shoot","value":300}`, ControlEvent{Kind: EventIntensityShoot, Value: 300}, nil},
		{"negative value", `{"action":"shoot","value":-40}`, ControlEvent{Kind: EventIntensityShoot, Value: -40}, nil},
		{"case and spaces", `{"action":" Right ","value":1}`, ControlEvent{Kind: EventIntensityRight, Value: 1}, nil},
		{"extra fields", `{"action":"left","value":7,"seq":3}`, ControlEvent{Kind: EventIntensityLeft, Value: 7}, nil},
		{"not json", `right 800`, ControlEvent{}, ErrMalformedPayload},
		{"array", `[1,2]`, ControlEvent{}, ErrMalformedPayload},
		{"null", `null`, ControlEvent{}, ErrMalformedPayload},
		{"empty", ``, ControlEvent{}, ErrMalformedPayload},
		{"missing action", `{"value":800}`, ControlEvent{}, ErrMissingField},
		{"missing value", `{"action":"right"}`, ControlEvent{}, ErrMissingField},
		{"string value", `{"action":"right","value":"abc"}`, ControlEvent{}, ErrWrongType},
		{"numeric string", `{"action":"right","value":"800"}`, ControlEvent{}, ErrWrongType},
		{"float value", `{"action":"right","value":800.5}`, ControlEvent{}, ErrWrongType},
		{"null value", `{"action":"right","value":null}`, ControlEvent{}, ErrWrongType},
		{"action not string", `{"action":1,"value":800}`, ControlEvent{}, ErrWrongType},
		{"unknown action", `{"action":"jump","value":800}`, ControlEvent{}, ErrUnknownAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeFrame([]byte(tc.payload))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v (event %v)", tc.wantErr, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDecodePeakBody(t *testing.T) {
	ev, err := DecodePeakBody(ActionNameShoot, []byte(`{"peak": 800}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != EventIntensityShoot || ev.Value != 800 {
		t.Fatalf("unexpected event %v", ev)
	}

	if _, err := DecodePeakBody(ActionNameRight, []byte(`{"peak": "abc"}`)); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected wrong type, got %v", err)
	}
	if _, err := DecodePeakBody(ActionNameRight, []byte(`{"value": 800}`)); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
	if _, err := DecodePeakBody(ActionNameRight, []byte(`{"peak": 800`)); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload, got %v", err)
	}
	if _, err := DecodePeakBody("up", []byte(`{"peak": 800}`)); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected unknown action, got %v", err)
	}
}

func TestNackReasonIsShort(t *testing.T) {
	_, err := DecodeFrame([]byte(`{"action":"right"}`))
	if got := nackReason(err); got != `missing field: "value"` {
		t.Fatalf("unexpected reason %q", got)
	}
	_, err = DecodeFrame([]byte(`{{`))
	if got := nackReason(err); got != "malformed payload" {
		t.Fatalf("unexpected reason %q", got)
	}
}
