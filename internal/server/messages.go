package server

// Message Type Constants
const (
	// Data path
	MsgOpen  = "open"
	MsgRead  = "read"
	MsgWrite = "write"
	MsgClose = "close"

	// Namespace
	MsgLink    = "link"
	MsgSymlink = "symlink"
	MsgUnlink  = "unlink"

	// Introspection
	MsgStat    = "stat"
	MsgLstat   = "lstat"
	MsgReadDir = "readdir"
	MsgFsStat  = "fsstat"
	MsgFsInfo  = "fsinfo"
)

// File descriptors in requests are handles of the server's store; they are
// meaningful only to the server that issued them.

type OpenRequest struct {
	Path string `json:"path"`
	Mode int    `json:"mode"`
}

type OpenResponse struct {
	FD int `json:"fd"`
}

type ReadRequest struct {
	FD     int `json:"fd"`
	Length int `json:"length"`
}

type ReadResponse struct {
	Data []byte `json:"data"`
}

type WriteRequest struct {
	FD   int    `json:"fd"`
	Data []byte `json:"data"`
}

type WriteResponse struct {
	Written int `json:"written"`
}

type CloseRequest struct {
	FD int `json:"fd"`
}

type LinkRequest struct {
	Target string `json:"target"`
	Name   string `json:"name"`
}

type SymlinkRequest struct {
	Target string `json:"target"`
	Name   string `json:"name"`
}

type UnlinkRequest struct {
	Path string `json:"path"`
}

type StatRequest struct {
	Path string `json:"path"`
}

type LstatRequest struct {
	Path string `json:"path"`
}

type ReadDirRequest struct{}

type FsStatRequest struct{}

type FsInfoRequest struct{}
