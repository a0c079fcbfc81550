package ui

import (
	"context"
	"net/http"

	"surveytab/domain/snapshot"
	"surveytab/internal"
	apperrors "surveytab/internal/errors"
	"surveytab/ports"
)

// StatusFor maps an application error to an HTTP status
func StatusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeValidationError, apperrors.CodeEmptyJoin, apperrors.CodeEmptyDataset:
		return http.StatusBadRequest
	case apperrors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the {"error": ...} payload. Upstream and internal
// failures are logged and reported without detail.
func errorBody(logger *internal.Logger, err error) map[string]string {
	switch StatusFor(err) {
	case http.StatusInternalServerError:
		logger.Error("request failed: %v", err)
		return map[string]string{"error": "Internal server error"}
	case http.StatusBadGateway:
		logger.Warn("dataset unavailable: %v", err)
		return map[string]string{"error": "Dataset source is unavailable"}
	}
	appErr, _ := apperrors.As(err)
	return map[string]string{"error": appErr.Message}
}

// snapshotStatus describes a snapshot for status endpoints
func snapshotStatus(snap *snapshot.Snapshot) map[string]interface{} {
	if snap == nil {
		return map[string]interface{}{"loaded": false}
	}
	return map[string]interface{}{
		"loaded":      true,
		"snapshot":    snap.ID.String(),
		"source":      snap.Source,
		"records":     snap.Len(),
		"fields":      len(snap.Fields),
		"fingerprint": snap.Fingerprint.Short(),
		"loadedAt":    snap.LoadedAt,
		"ageSeconds":  int(snap.LoadedAt.Since().Seconds()),
	}
}

// refreshSnapshot reloads the dataset, classifying failures
func refreshSnapshot(ctx context.Context, provider ports.SnapshotProvider) (*snapshot.Snapshot, error) {
	snap, err := provider.Refresh(ctx)
	if err != nil {
		return nil, apperrors.FromDomain(err)
	}
	return snap, nil
}
