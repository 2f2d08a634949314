package notify

import (
	"betstream/contract"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogAlerter_First_Request_Grants(t *testing.T) {
	req := require.New(t)
	alerter := NewLogAlerter(silentLogger())

	// Given a fresh alerter
	req.Equal(contract.PermissionDefault, alerter.Permission())

	// When permission is requested
	granted := alerter.RequestPermission()

	// Then the grant sticks
	req.Equal(contract.PermissionGranted, granted)
	req.Equal(contract.PermissionGranted, alerter.Permission())
}

func TestLogAlerter_Repeat_Key_Replaces(t *testing.T) {
	req := require.New(t)
	alerter := NewLogAlerter(silentLogger())

	req.NoError(alerter.Alert("n-1", "first", "body"))
	req.NoError(alerter.Alert("n-1", "second", "body"))

	req.Equal("second", alerter.raised["n-1"])
	req.Len(alerter.raised, 1)
}
