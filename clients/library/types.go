package tinylib

import (
	"github.com/AnishMulay/tinyfs/internal/communication"
)

// TinyFSClient talks to one tinyfs server. File descriptors it returns are
// the server's handles, so they stay valid only while that server runs.
type TinyFSClient struct {
	ServerAddr string
	NodeID     string
	Comm       communication.Communicator
}
