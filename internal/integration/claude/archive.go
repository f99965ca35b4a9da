package claude

import (
	"context"
	"time"

	"github.com/colonyops/goodvibes/internal/core/kv"
)

// Archiver hides a CLI conversation that goodvibes itself created.
type Archiver interface {
	Archive(ctx context.Context, cliSessionID string) error
}

// ArchiveRegistry records archived CLI session IDs in the KV store. The
// importer consults it so tagging prompts never show up as user sessions.
type ArchiveRegistry struct {
	ids *kv.TypedKV[time.Time]
	now func() time.Time
}

var _ Archiver = (*ArchiveRegistry)(nil)

// NewArchiveRegistry creates a registry in the "archived" namespace.
func NewArchiveRegistry(store kv.KV) *ArchiveRegistry {
	return &ArchiveRegistry{
		ids: kv.Scoped[time.Time](store, "archived"),
		now: time.Now,
	}
}

// Archive marks a CLI session as archived.
func (r *ArchiveRegistry) Archive(ctx context.Context, cliSessionID string) error {
	return r.ids.Set(ctx, cliSessionID, r.now().UTC())
}

// IsArchived reports whether a CLI session was archived.
func (r *ArchiveRegistry) IsArchived(ctx context.Context, cliSessionID string) (bool, error) {
	return r.ids.Has(ctx, cliSessionID)
}
