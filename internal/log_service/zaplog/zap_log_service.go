package zaplog

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AnishMulay/tinyfs/internal/log_service"
)

// ZapLogService adapts a zap logger to the LogService interface. Event
// metadata becomes structured fields.
type ZapLogService struct {
	logger *zap.Logger
	nodeID string
}

// NewZapLogService builds a production (JSON, stderr) logger at the given level.
func NewZapLogService(nodeID string, level string) (*ZapLogService, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	return NewFromLogger(logger, nodeID), nil
}

func NewFromLogger(logger *zap.Logger, nodeID string) *ZapLogService {
	return &ZapLogService{logger: logger, nodeID: nodeID}
}

// NewNop discards every event.
func NewNop() *ZapLogService {
	return NewFromLogger(zap.NewNop(), "")
}

func (z *ZapLogService) Sync() error {
	return z.logger.Sync()
}

func (z *ZapLogService) fields(event log_service.LogEvent) []zap.Field {
	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys)+2)
	nodeID := event.NodeID
	if nodeID == "" {
		nodeID = z.nodeID
	}
	if nodeID != "" {
		fields = append(fields, zap.String("node", nodeID))
	}
	if !event.Timestamp.IsZero() {
		fields = append(fields, zap.Time("eventTime", event.Timestamp))
	}
	for _, k := range keys {
		fields = append(fields, zap.Any(k, event.Metadata[k]))
	}
	return fields
}

func (z *ZapLogService) Debug(event log_service.LogEvent) {
	z.logger.Debug(event.Message, z.fields(event)...)
}

func (z *ZapLogService) Info(event log_service.LogEvent) {
	z.logger.Info(event.Message, z.fields(event)...)
}

func (z *ZapLogService) Warn(event log_service.LogEvent) {
	z.logger.Warn(event.Message, z.fields(event)...)
}

func (z *ZapLogService) Error(event log_service.LogEvent) {
	z.logger.Error(event.Message, z.fields(event)...)
}

var _ log_service.LogService = (*ZapLogService)(nil)
