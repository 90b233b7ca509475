package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	for in, want := range map[string]Channel{
		"email":  ChannelEmail,
		"EMAIL":  ChannelEmail,
		" Sms ":  ChannelSMS,
		"in_app": ChannelInApp,
		"IN_APP": ChannelInApp,
	} {
		got, err := ParseChannel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseChannel("carrier-pigeon")
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "email, sms, in_app", ChannelNames())
}

func TestCanTransition(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusPending, StatusSent}:      true,
		{StatusPending, StatusRetrying}:  true,
		{StatusRetrying, StatusSent}:     true,
		{StatusRetrying, StatusRetrying}: true,
		{StatusRetrying, StatusFailed}:   true,
	}

	all := []Status{StatusPending, StatusSent, StatusFailed, StatusRetrying}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]Status{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestSources(t *testing.T) {
	assert.Equal(t, []Status{StatusPending, StatusRetrying}, Sources(StatusSent))
	assert.Equal(t, []Status{StatusPending, StatusRetrying}, Sources(StatusRetrying))
	assert.Equal(t, []Status{StatusRetrying}, Sources(StatusFailed))
	assert.Empty(t, Sources(StatusPending))
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusSent.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusRetrying.IsTerminal())
}

func TestNotification_MetadataString(t *testing.T) {
	n := Notification{Metadata: map[string]any{"phoneNumber": "+15550000000", "count": 3, "empty": ""}}

	v, ok := n.MetadataString("phoneNumber")
	assert.True(t, ok)
	assert.Equal(t, "+15550000000", v)

	_, ok = n.MetadataString("count")
	assert.False(t, ok)
	_, ok = n.MetadataString("empty")
	assert.False(t, ok)
	_, ok = Notification{}.MetadataString("phoneNumber")
	assert.False(t, ok)
}
