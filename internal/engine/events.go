package engine

import (
	"waapiview/internal/domain"
)

const (
	OpConnect    = "connect"
	OpTree       = "tree"
	OpProperties = "properties"
	OpSelection  = "selection"
	OpSearch     = "search"
	OpGoTo       = "goto"
)

// Event is the single outcome of one engine request.
type Event interface {
	Operation() string
}

type Connected struct {
	Version domain.VersionInfo
}

// ConnectionFailed means the remote tool could not be reached. Op names the
// request that tried; Seq is set for live searches.
type ConnectionFailed struct {
	Op      string
	Seq     uint64
	Message string
	Err     error
}

// Failed reports any other error. Seq is set for live searches.
type Failed struct {
	Op      string
	Seq     uint64
	Message string
	Err     error
}

type TreeReady struct {
	Forest *domain.Forest
	// Session is set when this refresh opened the remote session.
	Session *domain.VersionInfo
}

type PropertiesReady struct {
	Records  []domain.PropertyRecord
	Selected bool
}

// NothingSelected answers a selection fetch when the tool has nothing
// selected. It carries no data so the shown properties stay as they are.
type NothingSelected struct{}

type SearchResultReady struct {
	Result domain.LiveResultSet
}

type GoToDone struct {
	IDs []string
}

// Discarded is delivered for work that finished after the engine closed.
type Discarded struct {
	Op string
}

func (event Connected) Operation() string         { return OpConnect }
func (event ConnectionFailed) Operation() string  { return event.Op }
func (event Failed) Operation() string            { return event.Op }
func (event TreeReady) Operation() string         { return OpTree }
func (event PropertiesReady) Operation() string   { return OpProperties }
func (event NothingSelected) Operation() string   { return OpSelection }
func (event SearchResultReady) Operation() string { return OpSearch }
func (event GoToDone) Operation() string          { return OpGoTo }
func (event Discarded) Operation() string         { return event.Op }
