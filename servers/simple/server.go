package simple

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	grpccomm "github.com/AnishMulay/tinyfs/internal/communication/grpc"
	"github.com/AnishMulay/tinyfs/internal/config"
	fsimple "github.com/AnishMulay/tinyfs/internal/file_service/simple"
	"github.com/AnishMulay/tinyfs/internal/log_service"
	"github.com/AnishMulay/tinyfs/internal/log_service/localdisc"
	"github.com/AnishMulay/tinyfs/internal/server"
	ssimple "github.com/AnishMulay/tinyfs/internal/server/simple"
)

type Options struct {
	NodeID     string
	ListenAddr string
	DataDir    string
	LogLevel   string
	Store      config.Params
}

// OptionsFrom maps a loaded config onto server options.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		NodeID:     cfg.Server.NodeID,
		ListenAddr: cfg.Server.ListenAddr,
		DataDir:    cfg.Server.DataDir,
		LogLevel:   cfg.Log.Level,
		Store:      cfg.Store,
	}
}

type runnable interface {
	Run() error
}

type singleNodeServer struct {
	server server.Server
	ls     *localdisc.LocalDiscLogService
}

func (s *singleNodeServer) Run() error {
	defer s.ls.Close()

	if err := s.server.Start(); err != nil {
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	s.ls.Info(log_service.LogEvent{Message: "Shutdown signal received"})
	return s.server.Stop()
}

// Build wires one store behind a gRPC listener. Logs go to DataDir/logs.
func Build(opts Options) (runnable, error) {
	logDir := filepath.Join(opts.DataDir, "logs")

	ls, err := localdisc.NewLocalDiscLogService(logDir, opts.NodeID, opts.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := opts.Store.Validate(); err != nil {
		ls.Close()
		return nil, err
	}

	comm := grpccomm.NewGRPCCommunicator(opts.ListenAddr, ls)
	files := fsimple.NewSimpleFileService(opts.Store, ls)
	srv := ssimple.NewSimpleServer(comm, files, ls)

	return &singleNodeServer{server: srv, ls: ls}, nil
}
