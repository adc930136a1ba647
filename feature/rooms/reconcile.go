package rooms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// QRSyncReport summarizes a QR reconciliation pass.
type QRSyncReport struct {
	Checked     int      `json:"checked"`
	Regenerated int      `json:"regenerated"`
	Failed      int      `json:"failed"`
	Orphans     []string `json:"orphans"`
}

// ReconcileQR compares the room catalog against the QR objects in
// storage and repairs the differences: rooms with a missing image or a
// missing persisted URL get their code regenerated, and objects without
// a matching room are reported as orphans (and removed when prune is
// set).
func (s *Service) ReconcileQR(ctx context.Context, prune bool) (*QRSyncReport, error) {
	if s.qr == nil {
		return nil, fmt.Errorf("qr generator not configured")
	}

	rooms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := s.qr.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	report := &QRSyncReport{Checked: len(rooms)}
	known := make(map[string]struct{}, len(rooms))

	for i := range rooms {
		room := &rooms[i]
		key := s.qr.ObjectKey(room.ID)
		known[key] = struct{}{}

		_, present := stored[key]
		if present && room.QRCodeURL != nil {
			continue
		}
		if err := s.SyncQR(ctx, room); err != nil {
			report.Failed++
			s.logger.Warn("QR regeneration failed during reconcile",
				zap.Uint("room_id", room.ID), zap.Error(err))
			continue
		}
		report.Regenerated++
	}

	for key := range stored {
		if _, ok := known[key]; ok {
			continue
		}
		report.Orphans = append(report.Orphans, key)
		if !prune {
			continue
		}
		if id, ok := roomIDFromKey(key); ok {
			if err := s.qr.Remove(ctx, id); err != nil {
				s.logger.Warn("Orphan QR removal failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	s.logger.Info("QR reconcile complete",
		zap.Int("checked", report.Checked),
		zap.Int("regenerated", report.Regenerated),
		zap.Int("failed", report.Failed),
		zap.Int("orphans", len(report.Orphans)))
	return report, nil
}

func roomIDFromKey(key string) (uint, bool) {
	name := strings.TrimSuffix(strings.TrimPrefix(key, "qr/"), ".png")
	id, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
