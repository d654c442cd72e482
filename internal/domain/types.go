package domain

type VersionInfo struct {
	DisplayName string `json:"displayName"`
	Version     string `json:"version"`
	Year        int    `json:"year"`
	Build       int    `json:"build"`
	Platform    string `json:"platform"`
}

func (info VersionInfo) String() string {
	if info.Version == "" {
		return info.DisplayName
	}
	if info.DisplayName == "" {
		return info.Version
	}
	return info.DisplayName + " " + info.Version
}

type PropertyRecord struct {
	ID     string         `json:"id" yaml:"id"`
	Values map[string]any `json:"values" yaml:"values"`
}

type Hit struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Notes string `json:"notes" yaml:"notes"`
	Path  string `json:"path" yaml:"path"`
	ID    string `json:"id" yaml:"id"`
}

type LiveResultSet struct {
	Seq  uint64
	Text string
	Hits []Hit
}

type SearchMatchSet struct {
	Query   string
	Matches []int
	Cursor  int
}

type FacetState struct {
	Discovered []string
	Active     map[string]bool
}
