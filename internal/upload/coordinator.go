// Package upload resolves the pending images of an edit state into durable
// asset references before the merge step runs.
//
// Each upload result is correlated back to its originating slot by explicit
// slot key, never by completion order: concurrent uploads finishing out of
// order must not be paired with the wrong slot. The merge step depends on
// receiving a keyed map for exactly this reason.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliphany/siteadmin/internal/content"
)

// Uploader is the slice of the asset store the coordinator needs.
type Uploader interface {
	// Upload stores an image and returns its durable asset reference.
	Upload(ctx context.Context, kind, filename string, r io.Reader) (content.AssetRef, error)
}

// Coordinator issues uploads for the slots of a form that hold a pending
// image and joins the results all-or-nothing: if any upload fails, the
// whole resolve fails and the save is aborted before anything is written.
type Coordinator struct {
	store  Uploader
	logger *zap.SugaredLogger
}

// New creates a Coordinator. A nil logger disables logging.
func New(store Uploader, logger *zap.SugaredLogger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Coordinator{store: store, logger: logger}
}

// Resolve uploads every pending image of the form and returns the results
// keyed by slot. Slots without a pending upload are not touched. Uploads
// run concurrently; the first failure cancels the rest and fails the
// resolve so the merge step never observes a partially uploaded state.
func (c *Coordinator) Resolve(ctx context.Context, local *content.FormState) (map[content.SlotKey]content.AssetRef, error) {
	pending := local.Pending()
	if len(pending) == 0 {
		return map[content.SlotKey]content.AssetRef{}, nil
	}

	var (
		mu      sync.Mutex
		results = make(map[content.SlotKey]content.AssetRef, len(pending))
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, key := range pending {
		key := key
		up := local.Slots[key].Pending

		g.Go(func() error {
			ref, err := c.uploadOne(ctx, *up)
			if err != nil {
				return fmt.Errorf("upload for slot %s failed: %w", key, err)
			}

			mu.Lock()
			results[key] = ref
			mu.Unlock()

			c.logger.Debugw("uploaded image", "slot", string(key), "asset", string(ref))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// uploadOne reads a pending image (enforcing the size limit) and sends it
// to the store.
func (c *Coordinator) uploadOne(ctx context.Context, up content.PendingUpload) (content.AssetRef, error) {
	data, err := up.Read()
	if err != nil {
		return "", err
	}

	filename := up.Filename
	if filename == "" {
		filename = filepath.Base(up.Path)
	}

	return c.store.Upload(ctx, "image", filename, bytes.NewReader(data))
}
