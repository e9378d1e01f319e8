package main

import (
	"context"
	"fmt"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/catalog"
	"github.com/marben/chaos_ifs/catalog/sqlite"
)

type result struct {
	stored, skipped int
}

// importFiles stores every valid descriptor of the given files; no files
// means the built-in catalog. Descriptors failing validation are skipped,
// or abort the import when strict is set.
func importFiles(ctx context.Context, store *sqlite.Store, paths []string, strict bool) (result, error) {
	var res result
	if len(paths) == 0 {
		return res, importRaws(ctx, store, "built-in", catalog.DefaultRaw(), strict, &res)
	}
	for _, path := range paths {
		raws, err := catalog.ReadFile(ctx, path)
		if err != nil {
			return res, err
		}
		if err := importRaws(ctx, store, path, raws, strict, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func importRaws(ctx context.Context, store *sqlite.Store, source string, raws []chaos.RawDescriptor, strict bool, res *result) error {
	for i, raw := range raws {
		if _, err := chaos.Normalize(raw); err != nil {
			if strict {
				return fmt.Errorf("%s: fractal %d: %w", source, i, err)
			}
			chaos.Logger().Warn("skipping descriptor", "source", source, "index", i, "err", err)
			res.skipped++
			continue
		}
		if err := store.Put(ctx, raw); err != nil {
			return err
		}
		res.stored++
	}
	return nil
}
