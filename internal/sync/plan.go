// Package sync implements the synchronization engine: change detection,
// diff planning, plan execution, and the periodic scheduler around them.
package sync

// ActionKind identifies one kind of replica mutation.
type ActionKind int

const (
	CreateDir ActionKind = iota
	CreateFile
	UpdateFile
	DeleteFile
	DeleteDir
)

func (k ActionKind) String() string {
	switch k {
	case CreateDir:
		return "create-dir"
	case CreateFile:
		return "create-file"
	case UpdateFile:
		return "update-file"
	case DeleteFile:
		return "delete-file"
	case DeleteDir:
		return "delete-dir"
	default:
		return "unknown"
	}
}

// Action is one planned replica mutation at a relative path.
type Action struct {
	Kind ActionKind
	Path string
}

// Plan is an ordered action sequence. Order is load-bearing: directories
// are created before their contents and emptied before they are removed.
// Fully applied, a plan makes the replica snapshot equal the source
// snapshot it was planned from.
type Plan []Action
