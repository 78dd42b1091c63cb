package core

import (
	"context"

	"go.uber.org/zap"
)

// Scrobbler correlates "track started" notifications from the host audio
// subsystem back to catalog track ids and reports the play to the server.
type Scrobbler struct {
	queue   *QueueManager
	catalog CatalogClient
	metrics Metrics
	logger  *zap.Logger
}

func NewScrobbler(queue *QueueManager, catalog CatalogClient, metrics Metrics, logger *zap.Logger) *Scrobbler {
	return &Scrobbler{
		queue:   queue,
		catalog: catalog,
		metrics: metrics,
		logger:  logger,
	}
}

// OnTrackStarted reports the play for a reported track title. Titles the
// queue never saw are ignored: the audio subsystem also reports playback it
// started for other reasons. A failed report is dropped, never retried; play
// history is not worth interrupting playback over.
func (s *Scrobbler) OnTrackStarted(ctx context.Context, trackTitle string) {
	trackID, ok := s.queue.LookupID(trackTitle)
	if !ok {
		s.logger.Debug("Ignoring track start for unknown title",
			zap.String("title", trackTitle))
		return
	}

	if err := s.catalog.ReportPlay(ctx, trackID); err != nil {
		s.logger.Warn("Failed to report play",
			zap.String("trackID", trackID),
			zap.String("title", trackTitle),
			zap.Error(err))
		return
	}

	s.metrics.RecordScrobble()
	s.logger.Debug("Play reported",
		zap.String("trackID", trackID),
		zap.String("title", trackTitle))
}
