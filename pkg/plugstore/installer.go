package plugstore

import (
	"context"
	"fmt"

	"github.com/randalmurphal/plugstore/pkg/plugstore/cache"
	"github.com/randalmurphal/plugstore/pkg/plugstore/index"
)

// FetchFunc retrieves the artifact for a reference into dest. The
// remote side (network, credentials, retries) is entirely the caller's
// concern; plugstore only sees the populated file.
type FetchFunc func(ctx context.Context, ref index.Reference, dest string) error

// DescribeFunc derives plugin metadata from a cached artifact. The
// default uses the reference fields and leaves Name and Version empty.
type DescribeFunc func(artifactPath string, ref index.Reference) (*PluginInfo, error)

// CachedInstaller installs every plugin listed in an index by
// materializing its artifact through the content-addressed cache.
// Already cached artifacts are not fetched again.
type CachedInstaller struct {
	idx      index.Store
	cache    *cache.Cache
	fetch    FetchFunc
	describe DescribeFunc
}

// InstallerOption configures a CachedInstaller.
type InstallerOption func(*CachedInstaller)

// WithDescribe sets the metadata derivation hook.
func WithDescribe(fn DescribeFunc) InstallerOption {
	return func(i *CachedInstaller) {
		i.describe = fn
	}
}

// NewCachedInstaller creates an installer over the given index, cache,
// and fetch function.
func NewCachedInstaller(idx index.Store, c *cache.Cache, fetch FetchFunc, opts ...InstallerOption) *CachedInstaller {
	i := &CachedInstaller{
		idx:   idx,
		cache: c,
		fetch: fetch,
		describe: func(_ string, ref index.Reference) (*PluginInfo, error) {
			return &PluginInfo{Key: ref.Key, Hash: ref.Hash, Filename: ref.Filename}, nil
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install implements Installer. It materializes every referenced
// artifact and returns the resulting metadata by key.
func (i *CachedInstaller) Install(ctx context.Context) (map[string]*PluginInfo, error) {
	refs, err := i.idx.List()
	if err != nil {
		return nil, fmt.Errorf("list plugin index: %w", err)
	}

	infos := make(map[string]*PluginInfo, len(refs))
	for _, ref := range refs {
		path, err := i.cache.Get(ctx, ref.Filename, ref.Hash, func(dest string) error {
			return i.fetch(ctx, ref, dest)
		})
		if err != nil {
			return nil, fmt.Errorf("install plugin %s: %w", ref.Key, err)
		}

		info, err := i.describe(path, ref)
		if err != nil {
			return nil, fmt.Errorf("describe plugin %s: %w", ref.Key, err)
		}
		infos[ref.Key] = info
	}
	return infos, nil
}
