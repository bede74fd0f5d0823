package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/buildrelay/internal/domain/workitem"
	"github.com/Strob0t/buildrelay/internal/port/workspace"
)

// Annotator writes back-references onto workspace records without
// duplicating them.
type Annotator struct {
	ws       workspace.Workspace
	pageSize int
	timeout  time.Duration
}

// NewAnnotator creates an Annotator scanning pageSize children per record.
func NewAnnotator(ws workspace.Workspace, pageSize int, timeout time.Duration) *Annotator {
	return &Annotator{ws: ws, pageSize: pageSize, timeout: timeout}
}

// Annotate appends "<label> <backRef>" to the record unless a child block on
// the first page already mentions backRef. It reports whether a block was
// written. Only the first page of children is scanned.
func (a *Annotator) Annotate(ctx context.Context, rec workitem.Record, backRef, label string) (bool, error) {
	if backRef == "" {
		return false, nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	blocks, err := a.ws.Children(ctx, string(rec.ID), a.pageSize)
	if err != nil {
		return false, fmt.Errorf("list children of %s: %w", rec.ID, err)
	}
	for _, b := range blocks {
		if b.Contains(backRef) {
			return false, nil
		}
	}

	if err := a.ws.AppendReference(ctx, string(rec.ID), label, backRef); err != nil {
		return false, fmt.Errorf("append reference to %s: %w", rec.ID, err)
	}
	return true, nil
}
