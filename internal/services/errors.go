package services

import (
	"errors"
	"fmt"
)

var (
	ErrStaleResult  = errors.New("live search result superseded")
	ErrDisconnected = errors.New("session disconnected")
	ErrNotConnected = errors.New("not connected")
)

// ConnectionError reports that the remote tool could not be reached.
type ConnectionError struct {
	URL string
	Err error
}

func (err *ConnectionError) Error() string {
	if err.URL == "" {
		return fmt.Sprintf("cannot connect to WAAPI: %v", err.Err)
	}
	return fmt.Sprintf("cannot connect to WAAPI at %s: %v", err.URL, err.Err)
}

func (err *ConnectionError) Unwrap() error {
	return err.Err
}

// RemoteCallError reports a failed request on an established session.
type RemoteCallError struct {
	Procedure string
	URI       string
	Message   string
	Err       error
}

func (err *RemoteCallError) Error() string {
	detail := err.Message
	if detail == "" && err.Err != nil {
		detail = err.Err.Error()
	}
	if err.URI != "" {
		return fmt.Sprintf("%s: %s: %s", err.Procedure, err.URI, detail)
	}
	return fmt.Sprintf("%s: %s", err.Procedure, detail)
}

func (err *RemoteCallError) Unwrap() error {
	return err.Err
}

type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindConnection
	KindRemote
	KindStale
	KindDisconnected
)

func Classify(err error) ErrorKind {
	var connErr *ConnectionError
	var callErr *RemoteCallError
	switch {
	case err == nil:
		return KindOther
	case errors.Is(err, ErrDisconnected):
		return KindDisconnected
	case errors.Is(err, ErrStaleResult):
		return KindStale
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &callErr):
		return KindRemote
	default:
		return KindOther
	}
}

func remoteCall(procedure string, err error) error {
	if err == nil {
		return nil
	}
	switch Classify(err) {
	case KindConnection, KindRemote, KindDisconnected:
		return err
	}
	return &RemoteCallError{Procedure: procedure, Err: err}
}
