package services

import (
	"context"
	"fmt"
	"time"

	"github.com/commboard/lottery-engine/internal/repositories"
	"github.com/commboard/lottery-engine/internal/utils"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure RetentionServiceImpl implements RetentionService
var _ RetentionService = (*RetentionServiceImpl)(nil)

// RetentionServiceImpl erases donor contact data from merchandise packets
// once they have been shipped longer than the retention window
type RetentionServiceImpl struct {
	merchandiseRepo repositories.MerchandiseRepository
	window          time.Duration
}

// NewRetentionService creates a new RetentionServiceImpl
func NewRetentionService(merchandiseRepo repositories.MerchandiseRepository, window time.Duration) *RetentionServiceImpl {
	return &RetentionServiceImpl{
		merchandiseRepo: merchandiseRepo,
		window:          window,
	}
}

// Sweep archives shipped merchandise packets whose ship date is older than
// the retention window. Pending and already-archived packets are untouched,
// so re-running the sweep is a no-op for them.
func (s *RetentionServiceImpl) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.window)
	packets, err := s.merchandiseRepo.FindShippedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired merchandise packets: %w", err)
	}

	archived := 0
	for _, packet := range packets {
		ok, err := s.merchandiseRepo.Archive(ctx, packet.ID, now)
		if err != nil {
			// One stuck packet must not stop the sweep; it is retried on
			// the next run.
			slog.Error("Failed to archive merchandise packet", "error", err, "packetId", packet.ID)
			continue
		}
		if ok {
			archived++
			slog.Info("Merchandise packet archived, donor data cleared",
				"packetId", packet.ID,
				"donor", utils.MaskName(derefOrEmpty(packet.DonorName)),
				"shippedAt", packet.ShippedAt)
		}
	}
	if archived > 0 {
		slog.Info("Retention sweep completed", "archived", archived, "cutoff", cutoff)
	}
	return archived, nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
