package errors

import "fmt"

var (
	ErrFetch             = fmt.Errorf("store read failed")
	ErrWrite             = fmt.Errorf("store write failed")
	ErrSubscription      = fmt.Errorf("transport subscription failed")
	ErrAlreadySubscribed = fmt.Errorf("component already subscribed to channel")
	ErrProfileNotFound   = fmt.Errorf("profile not found")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
)
