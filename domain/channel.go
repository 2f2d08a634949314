// Package domain contains core concepts of the realtime conversation subsystem.
// No runtime, network, or UI logic should be added here.
package domain

// ChannelID names a logical grouping for publish/subscribe event delivery.
// A conversation channel has no persistent state of its own beyond its identifier:
// it is created implicitly on first subscription and destroyed on last unsubscribe.
type ChannelID string

// NotificationChannel is the user-scoped channel carrying notification inserts.
func NotificationChannel(userID string) ChannelID {
	return ChannelID("notifications:" + userID)
}
