package services

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"waapiview/internal/domain"
)

// Session opens the remote connection once and hands it to every caller
// afterwards.
type Session struct {
	client    RemoteClient
	mu        sync.Mutex
	connected bool
	version   domain.VersionInfo
}

func NewSession(client RemoteClient) *Session {
	return &Session{client: client}
}

func (session *Session) Client() RemoteClient {
	return session.client
}

// Ensure connects if needed. fresh is true when this call opened the session.
func (session *Session) Ensure(ctx context.Context) (version domain.VersionInfo, fresh bool, err error) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.connected {
		return session.version, false, nil
	}
	version, err = session.client.Connect(ctx)
	if err != nil {
		if Classify(err) != KindConnection {
			err = &ConnectionError{Err: err}
		}
		glog.Warningf("[session]connect failed: %v", err)
		return domain.VersionInfo{}, false, err
	}
	session.connected = true
	session.version = version
	glog.Infof("[session]connected to %s", version)
	return version, true, nil
}

func (session *Session) Connected() bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.connected
}

func (session *Session) Version() (domain.VersionInfo, bool) {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.version, session.connected
}

// Reset forgets the current session so the next Ensure reconnects.
func (session *Session) Reset() {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.connected {
		glog.Infof("[session]reset after connection loss")
	}
	session.connected = false
}

// ResetOnLoss resets the session when err means the connection is gone.
func (session *Session) ResetOnLoss(err error) {
	if kind := Classify(err); kind == KindConnection || kind == KindDisconnected {
		session.Reset()
	}
}

func (session *Session) Disconnect() error {
	session.mu.Lock()
	wasConnected := session.connected
	session.connected = false
	session.mu.Unlock()
	if !wasConnected {
		return nil
	}
	glog.Infof("[session]disconnect")
	return session.client.Disconnect()
}
