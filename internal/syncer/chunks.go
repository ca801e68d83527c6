package syncer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/sleeper-sync/internal/retry"
)

// writeChunks splits n rows into chunks of size and writes each with bounded
// retry. A chunk that exhausts its retries is logged and skipped. It returns
// the number of skipped chunks.
func (s *Service) writeChunks(ctx context.Context, table string, n, size int, write func(ctx context.Context, from, to int) error) int {
	failed := 0
	for from, chunk := 0, 0; from < n; from, chunk = from+size, chunk+1 {
		to := min(from+size, n)
		op := fmt.Sprintf("%s chunk %d", table, chunk)
		err := retry.WithBackoff(ctx, s.opts.Retry, s.logger, op, func() error {
			return write(ctx, from, to)
		})
		if err != nil {
			failed++
			s.metrics.ChunkFailed(table)
			s.logger.WithError(err).WithFields(logrus.Fields{
				"table": table,
				"chunk": chunk,
				"rows":  to - from,
			}).Error("Chunk permanently failed")
			if ctx.Err() != nil {
				return failed + (n-to+size-1)/size
			}
		}
	}
	return failed
}
