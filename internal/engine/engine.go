// Package engine runs remote work in the background and turns each finished
// request into one Event for the foreground.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"waapiview/internal/domain"
	"waapiview/internal/search"
	"waapiview/internal/services"
	"waapiview/internal/worker"
)

type Options struct {
	Sync           services.SyncOptions
	PropertyFields []string
	// Tree and Properties replace the remote-backed defaults when set.
	Tree       services.TreeBuilder
	Properties services.PropertySource
}

// Pending is an issued request. Await turns it into an Event.
type Pending struct {
	Op     string
	Seq    uint64
	handle *worker.Handle
}

func (pending Pending) ID() string {
	if pending.handle == nil {
		return ""
	}
	return pending.handle.ID.String()
}

type Engine struct {
	client     services.RemoteClient
	session    *services.Session
	tree       services.TreeBuilder
	properties services.PropertySource
	live       *search.LiveFilter
	scheduler  *worker.Scheduler
	fields     []string
}

func New(client services.RemoteClient, options Options) *Engine {
	session := services.NewSession(client)
	engine := &Engine{
		client:     client,
		session:    session,
		tree:       options.Tree,
		properties: options.Properties,
		live:       search.NewLiveFilter(),
		scheduler:  worker.NewScheduler(context.Background()),
		fields:     append([]string{}, options.PropertyFields...),
	}
	if engine.tree == nil {
		engine.tree = services.NewHierarchySync(session, options.Sync)
	}
	if engine.properties == nil {
		engine.properties = services.NewPropertyFetcher(session)
	}
	return engine
}

func (engine *Engine) Live() *search.LiveFilter {
	return engine.live
}

// Progress is nil when the tree builder does not report progress.
func (engine *Engine) Progress() <-chan services.SyncProgress {
	if provider, ok := engine.tree.(services.ProgressProvider); ok {
		return provider.Progress()
	}
	return nil
}

func (engine *Engine) Session() *services.Session {
	return engine.session
}

func (engine *Engine) Connect() Pending {
	handle := engine.scheduler.Submit(OpConnect, func(ctx context.Context) (any, error) {
		version, fresh, err := engine.session.Ensure(ctx)
		if err != nil {
			return nil, err
		}
		return services.ConnectResult{Version: version, Fresh: fresh}, nil
	})
	return Pending{Op: OpConnect, handle: handle}
}

// RefreshTree rebuilds the mirror from scratch.
func (engine *Engine) RefreshTree() Pending {
	handle := engine.scheduler.Submit(OpTree, func(ctx context.Context) (any, error) {
		return engine.tree.Build(ctx)
	})
	return Pending{Op: OpTree, handle: handle}
}

// FetchProperties returns ok=false for an empty id list; nothing is submitted.
func (engine *Engine) FetchProperties(ids []string) (Pending, bool) {
	request := services.PropertyRequest{IDs: append([]string{}, ids...), Fields: engine.fields}
	if request.Empty() {
		return Pending{}, false
	}
	handle := engine.scheduler.Submit(OpProperties, func(ctx context.Context) (any, error) {
		start := time.Now()
		records, err := engine.properties.FetchProperties(ctx, request.IDs, request.Fields)
		if err != nil {
			return nil, err
		}
		return services.PropertiesResult{Records: records, Duration: time.Since(start)}, nil
	})
	return Pending{Op: OpProperties, handle: handle}, true
}

// FetchSelected fetches properties of whatever is selected in the authoring
// tool itself. An empty selection finishes as NothingSelected.
func (engine *Engine) FetchSelected() Pending {
	handle := engine.scheduler.Submit(OpSelection, func(ctx context.Context) (any, error) {
		start := time.Now()
		records, err := engine.properties.FetchSelected(ctx, engine.fields)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return services.PropertiesResult{Selected: true, Empty: true, Duration: time.Since(start)}, nil
		}
		return services.PropertiesResult{Records: records, Selected: true, Duration: time.Since(start)}, nil
	})
	return Pending{Op: OpSelection, handle: handle}
}

// LiveSearch issues a remote search for text. Blank text clears the live
// result and returns ok=false.
func (engine *Engine) LiveSearch(text string) (Pending, bool) {
	text = strings.TrimSpace(text)
	seq, ok := engine.live.Begin(text)
	if !ok {
		return Pending{}, false
	}
	request := services.SearchRequest{Seq: seq, Text: text}
	handle := engine.scheduler.Spawn(OpSearch, func(ctx context.Context) (any, error) {
		if _, _, err := engine.session.Ensure(ctx); err != nil {
			return nil, err
		}
		hits, err := engine.client.Search(ctx, request.Text)
		if err != nil {
			engine.session.ResetOnLoss(err)
			return nil, fmt.Errorf("search %q: %w", request.Text, err)
		}
		return domain.LiveResultSet{Seq: request.Seq, Text: request.Text, Hits: hits}, nil
	})
	return Pending{Op: OpSearch, Seq: seq, handle: handle}, true
}

// ApplySearch installs a search result unless a newer search was issued.
func (engine *Engine) ApplySearch(event SearchResultReady) error {
	return engine.live.Apply(event.Result)
}

// GoTo asks the authoring tool to reveal ids. Errors are only logged.
func (engine *Engine) GoTo(ids []string) (Pending, bool) {
	request := services.GoToRequest{IDs: append([]string{}, ids...)}
	if len(request.IDs) == 0 {
		return Pending{}, false
	}
	handle := engine.scheduler.Spawn(OpGoTo, func(ctx context.Context) (any, error) {
		if _, _, err := engine.session.Ensure(ctx); err != nil {
			return nil, err
		}
		if err := engine.client.GoToObjects(ctx, request.IDs); err != nil {
			glog.Warningf("[engine]go to %v failed: %v", request.IDs, err)
			engine.session.ResetOnLoss(err)
			return nil, err
		}
		return request, nil
	})
	return Pending{Op: OpGoTo, handle: handle}, true
}

// Await blocks until pending finishes or ctx ends.
func (engine *Engine) Await(ctx context.Context, pending Pending) Event {
	if pending.handle == nil {
		return Failed{Op: pending.Op, Message: "nothing to wait for"}
	}
	result := pending.handle.Wait(ctx)
	if result.Err != nil {
		return engine.failure(pending, result.Err)
	}
	switch value := result.Value.(type) {
	case services.ConnectResult:
		return Connected{Version: value.Version}
	case services.TreeResult:
		return TreeReady{Forest: value.Forest, Session: value.Session}
	case services.PropertiesResult:
		if value.Empty {
			return NothingSelected{}
		}
		return PropertiesReady{Records: value.Records, Selected: value.Selected}
	case domain.LiveResultSet:
		return SearchResultReady{Result: value}
	case services.GoToRequest:
		return GoToDone{IDs: value.IDs}
	default:
		return Failed{Op: pending.Op, Seq: pending.Seq, Message: fmt.Sprintf("unexpected result %T", result.Value)}
	}
}

func (engine *Engine) failure(pending Pending, err error) Event {
	switch services.Classify(err) {
	case services.KindDisconnected:
		glog.V(1).Infof("[engine]%s %s discarded", pending.Op, pending.ID())
		return Discarded{Op: pending.Op}
	case services.KindConnection:
		return ConnectionFailed{Op: pending.Op, Seq: pending.Seq, Message: Describe(pending.Op, err), Err: err}
	}
	return Failed{Op: pending.Op, Seq: pending.Seq, Message: Describe(pending.Op, err), Err: err}
}

// Describe renders err for the status line.
func Describe(op string, err error) string {
	var connErr *services.ConnectionError
	if errors.As(err, &connErr) {
		return fmt.Sprintf("Can not connect to WAAPI (%v)", connErr.Err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s timed out", op)
	}
	return fmt.Sprintf("%s failed: %v", op, err)
}

// Close stops the scheduler and then disconnects in the background. Work
// still running finishes as Discarded.
func (engine *Engine) Close(ctx context.Context) error {
	engine.scheduler.Close()
	done := make(chan error, 1)
	go func() {
		done <- engine.session.Disconnect()
	}()
	select {
	case err := <-done:
		if err != nil {
			glog.Warningf("[engine]disconnect: %v", err)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every job that was running at Close has returned.
func (engine *Engine) Wait(ctx context.Context) error {
	return engine.scheduler.Wait(ctx)
}
