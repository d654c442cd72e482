package services

type SyncProgress struct {
	Root      string
	Visited   int64
	Current   string
	Completed bool
}

type ProgressProvider interface {
	Progress() <-chan SyncProgress
}

func progressNonBlocking(ch chan<- SyncProgress, msg SyncProgress) {
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}
