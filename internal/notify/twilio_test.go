package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/crowdsafe/internal/config"
)

func TestTwilioSendSMS(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		got = r
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	sms := NewTwilioSMS(config.TwilioConfig{AccountSID: "AC123", AuthToken: "secret", FromNumber: "+15550000", BaseURL: srv.URL})
	require.NoError(t, sms.SendSMS(context.Background(), "+15551234", "Evacuate gate B"))

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.URL.Path)
	user, pass, ok := got.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "AC123", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, "+15551234", got.PostForm.Get("To"))
	assert.Equal(t, "+15550000", got.PostForm.Get("From"))
	assert.Equal(t, "Evacuate gate B", got.PostForm.Get("Body"))
}

func TestTwilioErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211}`))
	}))
	defer srv.Close()

	sms := NewTwilioSMS(config.TwilioConfig{AccountSID: "AC1", AuthToken: "x", FromNumber: "+1", BaseURL: srv.URL})
	err := sms.SendSMS(context.Background(), "bad", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
