package nm3

import (
	"reflect"
	"testing"
)

func TestReadNotification(t *testing.T) {
	tests := []struct {
		Name     string
		Code     ResponseCode
		Data     string
		Expected Notification
	}{
		{
			Name:     "status",
			Code:     ResponseStatus,
			Data:     "255V13797",
			Expected: &StatusNotification{Address: 255, Count: 13797},
		},
		{
			Name:     "address set",
			Code:     ResponseAddressSet,
			Data:     "007",
			Expected: &AddressSetNotification{Address: 7},
		},
		{
			Name:     "range report",
			Code:     ResponseRangeReport,
			Data:     "169T04388",
			Expected: &RangeReportNotification{Address: 169, Count: 4388},
		},
		{
			Name:     "no reply",
			Code:     ResponseNoReply,
			Expected: &NoReplyNotification{},
		},
		{
			Name:     "ping sent",
			Code:     ResponsePingSent,
			Data:     "169",
			Expected: &PingSentNotification{Address: 169},
		},
		{
			Name:     "unicast sent",
			Code:     ResponseUnicastSent,
			Data:     "16905",
			Expected: &SentNotification{code: ResponseUnicastSent, Address: 169, Length: 5},
		},
		{
			Name:     "ack request sent",
			Code:     ResponseAckRequestSent,
			Data:     "16905",
			Expected: &SentNotification{code: ResponseAckRequestSent, Address: 169, Length: 5},
		},
		{
			Name:     "broadcast sent",
			Code:     ResponseBroadcastSent,
			Data:     "64",
			Expected: &BroadcastSentNotification{Length: 64},
		},
		{
			Name:     "command rejected",
			Code:     ResponseCommandRejected,
			Expected: &CommandRejectedNotification{},
		},
		{
			Name:     "unicast received",
			Code:     ResponseUnicastReceived,
			Data:     "05hello",
			Expected: &UnicastReceivedNotification{Payload: []byte("hello")},
		},
		{
			Name:     "broadcast received",
			Code:     ResponseBroadcastReceived,
			Data:     "04204ahoy",
			Expected: &BroadcastReceivedNotification{Source: 42, Payload: []byte("ahoy")},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			got, err := readNotification(test.Code, []byte(test.Data))
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, test.Expected) {
				t.Fatalf("expected %+v, got %+v", test.Expected, got)
			}
			if got.ResponseCode() != test.Code {
				t.Fatalf("expected code %s, got %s", test.Code, got.ResponseCode())
			}
		})
	}
}

func TestReadNotificationMalformed(t *testing.T) {
	tests := []struct {
		Name string
		Code ResponseCode
		Data string
	}{
		{Name: "status without voltage", Code: ResponseStatus, Data: "255"},
		{Name: "status with bad digits", Code: ResponseStatus, Data: "2x5V13797"},
		{Name: "address too large", Code: ResponseAddressSet, Data: "256"},
		{Name: "address too short", Code: ResponseAddressSet, Data: "07"},
		{Name: "status count overlong", Code: ResponseStatus, Data: "255V99999999999999999999"},
		{Name: "range without time", Code: ResponseRangeReport, Data: "169"},
		{Name: "range count overlong", Code: ResponseRangeReport, Data: "169T99999999999999999999"},
		{Name: "sent length mismatch", Code: ResponseUnicastSent, Data: "169051"},
		{Name: "unicast short payload", Code: ResponseUnicastReceived, Data: "05hi"},
		{Name: "broadcast short payload", Code: ResponseBroadcastReceived, Data: "04204ah"},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			if _, err := readNotification(test.Code, []byte(test.Data)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestStatusVoltage(t *testing.T) {
	n := &StatusNotification{Address: 255, Count: 65535}
	if v := n.Voltage(); v >= 15 {
		t.Fatalf("full count should stay under 15V, got %v", v)
	}

	n = &StatusNotification{Address: 255, Count: 13797}
	expected := 13797 * 15.0 / 65536.0
	if v := n.Voltage(); v != expected {
		t.Fatalf("expected %v, got %v", expected, v)
	}
}
