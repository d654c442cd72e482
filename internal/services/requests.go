package services

type PropertyRequest struct {
	IDs    []string
	Fields []string
}

// Empty reports a request that resolves to nothing and must not be submitted.
func (req PropertyRequest) Empty() bool {
	return len(req.IDs) == 0
}

type SearchRequest struct {
	Seq  uint64
	Text string
}

type GoToRequest struct {
	IDs []string
}
