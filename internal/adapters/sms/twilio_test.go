package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twclient "github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/samirrijal/roomradar/internal/core/domain"
)

type fakeCreator struct {
	params *api.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(p *api.CreateMessageParams) (*api.ApiV2010Message, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &api.ApiV2010Message{Sid: &sid}, nil
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0901234567", "+84901234567", false},
		{"090 123 4567", "+84901234567", false},
		{"84901234567", "+84901234567", false},
		{"+84 (90) 123-4567", "+84901234567", false},
		{"+14155550100", "+14155550100", false},
		{"", "", true},
		{"12345", "", true},
		{"09x1234567", "", true},
		{"0+901234567", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSendSMS(t *testing.T) {
	fc := &fakeCreator{}
	s := &TwilioService{api: fc, from: "+15005550006"}

	require.NoError(t, s.SendSMS(context.Background(), "0901234567", "Lịch xem phòng"))
	assert.Equal(t, "+84901234567", *fc.params.To)
	assert.Equal(t, "+15005550006", *fc.params.From)
	assert.Equal(t, "Lịch xem phòng", *fc.params.Body)
}

func TestSendSMS_Rejects(t *testing.T) {
	fc := &fakeCreator{}
	s := &TwilioService{api: fc, from: "+15005550006"}

	assert.ErrorIs(t, s.SendSMS(context.Background(), "abc", "hi"), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.SendSMS(context.Background(), "0901234567", " "), domain.ErrInvalidInput)
	assert.Nil(t, fc.params)
}

func TestSendSMS_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rate limited", &twclient.TwilioRestError{Status: 429, Code: 20429, Message: "Too Many Requests"}, domain.ErrRateLimited},
		{"bad number", &twclient.TwilioRestError{Status: 400, Code: 21211, Message: "Invalid 'To' Phone Number"}, domain.ErrInvalidInput},
		{"server", &twclient.TwilioRestError{Status: 500, Code: 20500, Message: "Internal"}, domain.ErrUpstream},
		{"network", errors.New("dial tcp: timeout"), domain.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &TwilioService{api: &fakeCreator{err: tt.err}, from: "+15005550006"}
			assert.ErrorIs(t, s.SendSMS(context.Background(), "0901234567", "hi"), tt.want)
		})
	}
}

func TestNewTwilioService_MissingConfig(t *testing.T) {
	_, err := NewTwilioService("AC123", "", "+15005550006")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestLogService(t *testing.T) {
	s := NewLogService()
	require.NoError(t, s.SendSMS(context.Background(), "0901234567", "xin chào"))
	assert.Equal(t, []Message{{To: "+84901234567", Body: "xin chào"}}, s.Sent())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "********4567", mask("+84901234567"))
	assert.Equal(t, "****", mask("123"))
}
