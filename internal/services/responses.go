package services

import (
	"time"

	"waapiview/internal/domain"
)

type TreeResult struct {
	Forest *domain.Forest
	// Session is set when the build opened the remote session.
	Session  *domain.VersionInfo
	Duration time.Duration
}

type PropertiesResult struct {
	Records  []domain.PropertyRecord
	Selected bool
	// Empty means the tool had nothing selected; Records is then nil.
	Empty    bool
	Duration time.Duration
}

type ConnectResult struct {
	Version domain.VersionInfo
	Fresh   bool
}
