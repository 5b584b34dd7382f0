package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
)

var exportHeader = []string{
	"ID", "Reference BL", "Type", "Status", "Client",
	"Courier", "Address", "Scheduled Date", "Completed At", "Notes",
}

// Export writes every task matching q as CSV. Pagination is ignored.
func (s *TaskService) Export(ctx context.Context, p auth.Principal, q TaskQuery, w io.Writer) (int, error) {
	f, err := s.buildFilter(ctx, p, q)
	if err != nil {
		return 0, err
	}
	tasks, err := s.store.Tasks.List(ctx, f)
	if err != nil {
		return 0, apperrors.Internal("list tasks", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, apperrors.Internal("write csv", err)
	}
	for _, t := range tasks {
		completed := ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.ReferenceBL,
			t.Type.Label(),
			t.Status.Label(),
			t.ClientName,
			t.CourierName,
			t.Address,
			t.ScheduledDate,
			completed,
			t.Notes,
		}
		if err := cw.Write(record); err != nil {
			return 0, apperrors.Internal("write csv", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, apperrors.Internal("write csv", err)
	}
	return len(tasks), nil
}
