package ui

import (
	"waapiview/internal/engine"
	"waapiview/internal/services"
)

type engineEventMsg struct {
	pending engine.Pending
	event   engine.Event
}

type syncProgressMsg struct {
	progress services.SyncProgress
}

type clipboardMsg struct {
	label string
	err   error
}
