package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"waapiview/internal/domain"
)

const (
	progressEvery   = 50
	voiceProperty   = "IsVoice"
	soundObjectType = "Sound"
)

type SyncOptions struct {
	RootPaths      []string
	ClassifyVoices bool
}

// HierarchySync mirrors the remote object tree below the configured root
// paths.
type HierarchySync struct {
	session  *Session
	options  SyncOptions
	mu       sync.RWMutex
	progress chan SyncProgress
}

func NewHierarchySync(session *Session, options SyncOptions) *HierarchySync {
	return &HierarchySync{
		session: session,
		options: SyncOptions{
			RootPaths:      append([]string{}, options.RootPaths...),
			ClassifyVoices: options.ClassifyVoices,
		},
	}
}

func (syncer *HierarchySync) Progress() <-chan SyncProgress {
	syncer.mu.RLock()
	defer syncer.mu.RUnlock()
	return syncer.progress
}

func (syncer *HierarchySync) setProgress(progress chan SyncProgress) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	syncer.progress = progress
}

// Build returns the complete forest or an error, never a partial tree.
func (syncer *HierarchySync) Build(ctx context.Context) (TreeResult, error) {
	start := time.Now()
	version, fresh, err := syncer.session.Ensure(ctx)
	if err != nil {
		return TreeResult{}, err
	}

	progress := make(chan SyncProgress, 64)
	syncer.setProgress(progress)
	defer close(progress)

	forest := domain.NewForest()
	var visited int64
	for _, rootPath := range syncer.options.RootPaths {
		if err := syncer.mirrorRoot(ctx, forest, rootPath, progress, &visited); err != nil {
			syncer.session.ResetOnLoss(err)
			glog.Warningf("[sync]build aborted under %s: %v", rootPath, err)
			return TreeResult{}, err
		}
	}
	progressNonBlocking(progress, SyncProgress{Visited: visited, Completed: true})

	result := TreeResult{Forest: forest, Duration: time.Since(start)}
	if fresh {
		result.Session = &version
	}
	glog.Infof("[sync]mirrored %d nodes under %d roots in %s", forest.Len(), len(forest.Roots), result.Duration)
	return result, nil
}

func (syncer *HierarchySync) mirrorRoot(ctx context.Context, forest *domain.Forest, rootPath string, progress chan<- SyncProgress, visited *int64) error {
	root, err := forest.AddRoot(rootPath)
	if err != nil {
		return &RemoteCallError{Procedure: "getChildren", Message: err.Error()}
	}
	client := syncer.session.Client()
	stack := []int{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		path := forest.Node(current).Path

		children, err := client.GetChildren(ctx, path)
		if err != nil {
			return remoteCall("getChildren", fmt.Errorf("%s: %w", path, err))
		}
		added := make([]int, 0, len(children))
		for _, child := range children {
			index, err := forest.AddChild(current, child)
			if err != nil {
				return &RemoteCallError{Procedure: "getChildren", Message: err.Error()}
			}
			if syncer.options.ClassifyVoices && child.Type == soundObjectType {
				voice, err := client.GetProperty(ctx, child.ID, voiceProperty)
				if err != nil {
					return remoteCall("getProperty", fmt.Errorf("%s: %w", child.Path, err))
				}
				forest.Node(index).Voice = truthy(voice)
			}
			added = append(added, index)
			*visited++
			if *visited%progressEvery == 0 {
				progressNonBlocking(progress, SyncProgress{Root: rootPath, Visited: *visited, Current: child.Path})
			}
		}
		for i := len(added) - 1; i >= 0; i-- {
			stack = append(stack, added[i])
		}
	}
	return nil
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case float64:
		return typed != 0
	case int:
		return typed != 0
	case string:
		return typed == "true" || typed == "1"
	default:
		return false
	}
}
