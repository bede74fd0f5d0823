package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/buildrelay/internal/domain/workitem"
	"github.com/Strob0t/buildrelay/internal/logger"
	"github.com/Strob0t/buildrelay/internal/port/workspace"
)

// Resolver maps work-item references to workspace records.
type Resolver struct {
	ws          workspace.Workspace // nil disables short-code search
	pageBaseURL string
	timeout     time.Duration
	limit       int
}

// NewResolver creates a Resolver. ws may be nil, in which case only direct
// links resolve.
func NewResolver(ws workspace.Workspace, pageBaseURL string, timeout time.Duration, limit int) *Resolver {
	if limit < 1 {
		limit = 1
	}
	return &Resolver{
		ws:          ws,
		pageBaseURL: strings.TrimSuffix(pageBaseURL, "/"),
		timeout:     timeout,
		limit:       limit,
	}
}

// Resolve looks up every reference concurrently and merges the hits into one
// record per canonical id. Misses are dropped; the result is never nil.
func (r *Resolver) Resolve(ctx context.Context, refs []workitem.Reference) []workitem.Record {
	resolutions := make([]workitem.Resolution, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			resolutions[i] = workitem.Resolution{Reference: ref, Record: r.resolveOne(gctx, ref)}
			return nil
		})
	}
	_ = g.Wait()

	return workitem.Merge(resolutions)
}

func (r *Resolver) resolveOne(ctx context.Context, ref workitem.Reference) *workitem.Record {
	switch ref.Kind {
	case workitem.KindDirectLink:
		id, ok := workitem.IDFromLink(ref.Value)
		if !ok {
			logger.FromContext(ctx).Debug("link carries no record id", "link", ref.Value)
			return nil
		}
		return workitem.NewDirectRecord(id, ref.Value)
	case workitem.KindShortCode:
		return r.search(ctx, ref.Value)
	}
	return nil
}

// search takes the first page-type hit in the workspace's own relevance order.
func (r *Resolver) search(ctx context.Context, code string) *workitem.Record {
	if r.ws == nil {
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	pages, err := r.ws.Search(ctx, code)
	if err != nil {
		logger.FromContext(ctx).Warn("workspace search failed", "code", code, "error", err)
		return nil
	}

	for _, p := range pages {
		if p.Object != "" && p.Object != "page" {
			continue
		}
		id, ok := workitem.ParseCanonicalID(p.ID)
		if !ok {
			continue
		}
		return workitem.NewSearchedRecord(id, r.pageBaseURL+"/"+id.Compact(), code)
	}

	logger.FromContext(ctx).Debug("no workspace page for code", "code", code)
	return nil
}
