package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"waapiview/internal/domain"
)

const (
	DefaultWaapiURL = "ws://127.0.0.1:8080/waapi"
	DefaultRealm    = "realm1"
	wampSubprotocol = "wamp.2.json"
)

// WAMP v2 message codes.
const (
	wampHello   = 1
	wampWelcome = 2
	wampAbort   = 3
	wampGoodbye = 6
	wampError   = 8
	wampCall    = 48
	wampResult  = 50
)

const (
	procGetInfo       = "ak.wwise.core.getInfo"
	procObjectGet     = "ak.wwise.core.object.get"
	procPropertyNames = "ak.wwise.core.object.getPropertyAndReferenceNames"
	procGetSelected   = "ak.wwise.ui.getSelectedObjects"
	procExecute       = "ak.wwise.ui.commands.execute"
	goToCommand       = "FindInProjectExplorerSyncGroup1"
)

var (
	childFields = []string{"id", "name", "type", "path"}
	hitFields   = []string{"name", "type", "notes", "path", "id"}
)

type WaapiSettings struct {
	URL              string
	Realm            string
	HandshakeTimeout time.Duration
	CallTimeout      time.Duration
	WriteTimeout     time.Duration
}

func DefaultWaapiSettings() *WaapiSettings {
	return &WaapiSettings{
		URL:              DefaultWaapiURL,
		Realm:            DefaultRealm,
		HandshakeTimeout: 2 * time.Second,
		CallTimeout:      10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

// WaapiClient talks to the authoring tool over WAMP. Calls are multiplexed on
// one WebSocket by request id, so concurrent callers are fine.
type WaapiClient struct {
	settings *WaapiSettings
	dialer   *websocket.Dialer
	nextID   uint64

	mu      sync.Mutex
	current *wampConn
}

type wampConn struct {
	ws        *websocket.Conn
	sessionID uint64
	writeMu   sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan wampReply
	closing bool
	done    chan struct{}
}

type wampReply struct {
	args   json.RawMessage
	kwargs json.RawMessage
	uri    string
	err    error
}

func NewWaapiClient(settings *WaapiSettings) *WaapiClient {
	if settings == nil {
		settings = DefaultWaapiSettings()
	}
	return &WaapiClient{
		settings: settings,
		dialer: &websocket.Dialer{
			HandshakeTimeout: settings.HandshakeTimeout,
			Subprotocols:     []string{wampSubprotocol},
		},
	}
}

func (client *WaapiClient) Connect(ctx context.Context) (domain.VersionInfo, error) {
	client.mu.Lock()
	if client.current == nil {
		conn, err := client.open(ctx)
		if err != nil {
			client.mu.Unlock()
			return domain.VersionInfo{}, err
		}
		client.current = conn
		go client.readLoop(conn)
	}
	client.mu.Unlock()

	var info waapiInfo
	if err := client.call(ctx, procGetInfo, nil, nil, &info); err != nil {
		if Classify(err) == KindConnection {
			return domain.VersionInfo{}, err
		}
		return domain.VersionInfo{}, &ConnectionError{URL: client.settings.URL, Err: err}
	}
	return info.versionInfo(), nil
}

func (client *WaapiClient) open(ctx context.Context) (*wampConn, error) {
	dialCtx := ctx
	if client.settings.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, client.settings.HandshakeTimeout)
		defer cancel()
	}
	ws, _, err := client.dialer.DialContext(dialCtx, client.settings.URL, nil)
	if err != nil {
		return nil, &ConnectionError{URL: client.settings.URL, Err: err}
	}

	success := false
	defer func() {
		if !success {
			ws.Close()
		}
	}()

	hello := []any{wampHello, client.settings.Realm, map[string]any{
		"roles": map[string]any{"caller": map[string]any{}},
	}}
	ws.SetWriteDeadline(time.Now().Add(client.settings.HandshakeTimeout))
	if err := ws.WriteJSON(hello); err != nil {
		return nil, &ConnectionError{URL: client.settings.URL, Err: err}
	}
	ws.SetReadDeadline(time.Now().Add(client.settings.HandshakeTimeout))
	_, data, err := ws.ReadMessage()
	if err != nil {
		return nil, &ConnectionError{URL: client.settings.URL, Err: err}
	}
	frame, code, err := decodeFrame(data)
	if err != nil {
		return nil, &ConnectionError{URL: client.settings.URL, Err: err}
	}
	conn := &wampConn{
		ws:      ws,
		pending: make(map[uint64]chan wampReply),
		done:    make(chan struct{}),
	}
	switch code {
	case wampWelcome:
		if len(frame) > 1 {
			json.Unmarshal(frame[1], &conn.sessionID)
		}
	case wampAbort:
		reason := "aborted"
		if len(frame) > 2 {
			json.Unmarshal(frame[2], &reason)
		}
		return nil, &ConnectionError{URL: client.settings.URL, Err: errors.New(reason)}
	default:
		return nil, &ConnectionError{URL: client.settings.URL, Err: fmt.Errorf("unexpected handshake message %d", code)}
	}
	ws.SetReadDeadline(time.Time{})
	ws.SetWriteDeadline(time.Time{})

	success = true
	glog.Infof("[waapi]session %d open on %s", conn.sessionID, client.settings.URL)
	return conn, nil
}

func (client *WaapiClient) readLoop(conn *wampConn) {
	defer close(conn.done)
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			client.drop(conn, err)
			return
		}
		frame, code, err := decodeFrame(data)
		if err != nil {
			glog.Warningf("[waapi]bad frame: %v", err)
			continue
		}
		switch code {
		case wampResult:
			var id uint64
			if len(frame) < 2 || json.Unmarshal(frame[1], &id) != nil {
				continue
			}
			conn.deliver(id, wampReply{args: frameAt(frame, 3), kwargs: frameAt(frame, 4)})
		case wampError:
			var id uint64
			var uri string
			if len(frame) < 5 || json.Unmarshal(frame[2], &id) != nil {
				continue
			}
			json.Unmarshal(frame[4], &uri)
			conn.deliver(id, wampReply{uri: uri, args: frameAt(frame, 5), kwargs: frameAt(frame, 6)})
		case wampGoodbye:
			conn.mu.Lock()
			closing := conn.closing
			conn.mu.Unlock()
			if !closing {
				conn.write([]any{wampGoodbye, map[string]any{}, "wamp.close.goodbye_and_out"}, client.settings.WriteTimeout)
			}
			client.drop(conn, errors.New("session closed by peer"))
			conn.ws.Close()
			return
		default:
			glog.V(2).Infof("[waapi]ignored message %d", code)
		}
	}
}

// drop detaches conn and fails every call still waiting on it.
func (client *WaapiClient) drop(conn *wampConn, cause error) {
	client.mu.Lock()
	if client.current == conn {
		client.current = nil
	}
	client.mu.Unlock()

	conn.mu.Lock()
	pending := conn.pending
	conn.pending = make(map[uint64]chan wampReply)
	closing := conn.closing
	conn.closing = true
	conn.mu.Unlock()

	var err error = &ConnectionError{URL: client.settings.URL, Err: cause}
	if closing {
		err = ErrDisconnected
	} else {
		glog.Warningf("[waapi]connection lost: %v", cause)
	}
	for _, reply := range pending {
		reply <- wampReply{err: err}
	}
}

func (client *WaapiClient) active() *wampConn {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.current
}

func (client *WaapiClient) call(ctx context.Context, procedure string, args map[string]any, options map[string]any, out any) error {
	conn := client.active()
	if conn == nil {
		return &ConnectionError{URL: client.settings.URL, Err: ErrNotConnected}
	}
	if client.settings.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, client.settings.CallTimeout)
		defer cancel()
	}
	if args == nil {
		args = map[string]any{}
	}
	if options == nil {
		options = map[string]any{}
	}

	id := atomic.AddUint64(&client.nextID, 1)
	reply, err := conn.register(id)
	if err != nil {
		return err
	}
	glog.V(2).Infof("[waapi]call %d %s", id, procedure)
	if err := conn.write([]any{wampCall, id, options, procedure, []any{}, args}, client.settings.WriteTimeout); err != nil {
		conn.unregister(id)
		return &ConnectionError{URL: client.settings.URL, Err: err}
	}

	select {
	case result := <-reply:
		if result.err != nil {
			return result.err
		}
		if result.uri != "" {
			return &RemoteCallError{Procedure: procedure, URI: result.uri, Message: errorMessage(result)}
		}
		if out == nil || len(result.kwargs) == 0 {
			return nil
		}
		if err := json.Unmarshal(result.kwargs, out); err != nil {
			return &RemoteCallError{Procedure: procedure, Message: "decode result", Err: err}
		}
		return nil
	case <-ctx.Done():
		conn.unregister(id)
		return &RemoteCallError{Procedure: procedure, Err: ctx.Err()}
	}
}

func (conn *wampConn) register(id uint64) (chan wampReply, error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closing {
		return nil, ErrDisconnected
	}
	reply := make(chan wampReply, 1)
	conn.pending[id] = reply
	return reply, nil
}

func (conn *wampConn) unregister(id uint64) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	delete(conn.pending, id)
}

func (conn *wampConn) deliver(id uint64, reply wampReply) {
	conn.mu.Lock()
	channel, ok := conn.pending[id]
	delete(conn.pending, id)
	conn.mu.Unlock()
	if !ok {
		glog.V(1).Infof("[waapi]reply for unknown request %d", id)
		return
	}
	channel <- reply
}

func (conn *wampConn) write(frame []any, timeout time.Duration) error {
	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()
	if timeout > 0 {
		conn.ws.SetWriteDeadline(time.Now().Add(timeout))
	}
	return conn.ws.WriteJSON(frame)
}

func (client *WaapiClient) GetChildren(ctx context.Context, path string) ([]domain.ObjectInfo, error) {
	args := map[string]any{
		"from":      map[string]any{"path": []string{path}},
		"transform": []any{map[string]any{"select": []string{"children"}}},
	}
	var reply struct {
		Return []domain.ObjectInfo `json:"return"`
	}
	if err := client.call(ctx, procObjectGet, args, returning(childFields), &reply); err != nil {
		return nil, err
	}
	return reply.Return, nil
}

func (client *WaapiClient) GetProperty(ctx context.Context, id string, name string) (any, error) {
	key := "@" + name
	object, err := client.object(ctx, id, []string{key})
	if err != nil {
		return nil, err
	}
	return object[key], nil
}

func (client *WaapiClient) GetProperties(ctx context.Context, id string) (map[string]any, error) {
	var names struct {
		Return []string `json:"return"`
	}
	if err := client.call(ctx, procPropertyNames, map[string]any{"object": id}, nil, &names); err != nil {
		return nil, err
	}
	fields := append([]string{}, childFields...)
	for _, name := range names.Return {
		fields = append(fields, "@"+name)
	}
	return client.object(ctx, id, fields)
}

func (client *WaapiClient) GetFields(ctx context.Context, id string, fields []string) (map[string]any, error) {
	return client.object(ctx, id, fields)
}

func (client *WaapiClient) object(ctx context.Context, id string, fields []string) (map[string]any, error) {
	args := map[string]any{"from": map[string]any{"id": []string{id}}}
	var reply struct {
		Return []map[string]any `json:"return"`
	}
	if err := client.call(ctx, procObjectGet, args, returning(fields), &reply); err != nil {
		return nil, err
	}
	if len(reply.Return) == 0 {
		return nil, &RemoteCallError{Procedure: procObjectGet, Message: fmt.Sprintf("object %s not found", id)}
	}
	return reply.Return[0], nil
}

func (client *WaapiClient) GetSelected(ctx context.Context, fields []string) ([]map[string]any, error) {
	var reply struct {
		Objects []map[string]any `json:"objects"`
	}
	if err := client.call(ctx, procGetSelected, nil, returning(fields), &reply); err != nil {
		return nil, err
	}
	return reply.Objects, nil
}

func (client *WaapiClient) Search(ctx context.Context, text string) ([]domain.Hit, error) {
	args := map[string]any{"from": map[string]any{"search": []string{text}}}
	var reply struct {
		Return []domain.Hit `json:"return"`
	}
	if err := client.call(ctx, procObjectGet, args, returning(hitFields), &reply); err != nil {
		return nil, err
	}
	return reply.Return, nil
}

func (client *WaapiClient) GoToObjects(ctx context.Context, ids []string) error {
	args := map[string]any{"command": goToCommand, "objects": ids}
	return client.call(ctx, procExecute, args, nil, nil)
}

func (client *WaapiClient) Disconnect() error {
	client.mu.Lock()
	conn := client.current
	client.current = nil
	client.mu.Unlock()
	if conn == nil {
		return nil
	}

	conn.mu.Lock()
	conn.closing = true
	conn.mu.Unlock()
	conn.write([]any{wampGoodbye, map[string]any{}, "wamp.close.system_shutdown"}, client.settings.WriteTimeout)

	defer glog.Infof("[waapi]session %d closed", conn.sessionID)
	select {
	case <-conn.done:
		return nil
	case <-time.After(client.settings.WriteTimeout):
	}
	conn.writeMu.Lock()
	conn.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	conn.writeMu.Unlock()
	err := conn.ws.Close()
	<-conn.done
	return err
}

type waapiInfo struct {
	DisplayName string `json:"displayName"`
	Platform    string `json:"platform"`
	Version     struct {
		DisplayName string `json:"displayName"`
		Year        int    `json:"year"`
		Build       int    `json:"build"`
	} `json:"version"`
}

func (info waapiInfo) versionInfo() domain.VersionInfo {
	return domain.VersionInfo{
		DisplayName: info.DisplayName,
		Version:     info.Version.DisplayName,
		Year:        info.Version.Year,
		Build:       info.Version.Build,
		Platform:    info.Platform,
	}
}

func returning(fields []string) map[string]any {
	return map[string]any{"return": fields}
}

func decodeFrame(data []byte) ([]json.RawMessage, int, error) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, 0, err
	}
	if len(frame) == 0 {
		return nil, 0, errors.New("empty frame")
	}
	var code int
	if err := json.Unmarshal(frame[0], &code); err != nil {
		return nil, 0, err
	}
	return frame, code, nil
}

func frameAt(frame []json.RawMessage, index int) json.RawMessage {
	if index < len(frame) {
		return frame[index]
	}
	return nil
}

func errorMessage(reply wampReply) string {
	var kwargs struct {
		Message string `json:"message"`
	}
	if len(reply.kwargs) > 0 && json.Unmarshal(reply.kwargs, &kwargs) == nil && kwargs.Message != "" {
		return kwargs.Message
	}
	var args []string
	if len(reply.args) > 0 && json.Unmarshal(reply.args, &args) == nil && len(args) > 0 {
		return args[0]
	}
	return reply.uri
}
