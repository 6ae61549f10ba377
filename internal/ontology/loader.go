// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ontology

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"

	"github.com/aare-ai/aare-core/internal/apperr"
)

// Source lists the ontology documents available under a backend and
// opens each one for reading. Local directories and GCS prefixes both
// implement it, so Registry does not need to know which backend it was
// built with.
type Source interface {
	// List returns the identifiers (e.g. filenames or object names) of
	// every ontology document currently available.
	List(ctx context.Context) ([]string, error)

	// Open returns the raw bytes of one document named by an identifier
	// previously returned from List.
	Open(ctx context.Context, id string) ([]byte, error)

	// String names the backend, for logging.
	String() string
}

// DirSource reads ontology documents (*.json) from a local directory.
type DirSource struct {
	Dir string
}

func (d DirSource) String() string { return fmt.Sprintf("dir:%s", d.Dir) }

func (d DirSource) List(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(d.Dir, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".json") {
			rel, err := filepath.Rel(d.Dir, p)
			if err != nil {
				return err
			}
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLoadError, d.Dir, err)
	}
	return out, nil
}

func (d DirSource) Open(ctx context.Context, id string) ([]byte, error) {
	data, err := fs.ReadFile(os.DirFS(d.Dir), id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLoadError, id, err)
	}
	return data, nil
}

// GCSSource reads ontology documents from objects under a bucket prefix.
type GCSSource struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

func (g GCSSource) String() string { return fmt.Sprintf("gs://%s/%s", g.Bucket, g.Prefix) }

func (g GCSSource) List(ctx context.Context) ([]string, error) {
	bkt := g.Client.Bucket(g.Bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: g.Prefix})
	var out []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindLoadError, g.String(), err)
		}
		if strings.EqualFold(path.Ext(attrs.Name), ".json") {
			rel := strings.TrimPrefix(attrs.Name, g.Prefix)
			rel = strings.TrimPrefix(rel, "/")
			out = append(out, rel)
		}
	}
	return out, nil
}

func (g GCSSource) Open(ctx context.Context, id string) ([]byte, error) {
	obj := g.Client.Bucket(g.Bucket).Object(path.Join(g.Prefix, id))
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLoadError, id, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLoadError, id, err)
	}
	return data, nil
}

// LoadAll reads, parses, and validates every document a Source lists,
// bounding concurrency so a directory of hundreds of ontologies does not
// open hundreds of file descriptors or GCS connections at once.
func LoadAll(ctx context.Context, src Source, maxConcurrency int) (map[string]*Ontology, error) {
	ids, err := src.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*Ontology, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			data, err := src.Open(gctx, id)
			if err != nil {
				return err
			}
			o, err := parseAndValidate(id, data)
			if err != nil {
				return err
			}
			results[i] = o
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Ontology, len(results))
	for i, o := range results {
		if o == nil {
			continue
		}
		if _, dup := out[o.Name]; dup {
			return nil, apperr.New(apperr.KindLoadError, ids[i], fmt.Sprintf("ontology name %q loaded from more than one document", o.Name))
		}
		out[o.Name] = o
	}
	return out, nil
}

func parseAndValidate(id string, data []byte) (*Ontology, error) {
	var o Ontology
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, apperr.Wrap(apperr.KindLoadError, id, err)
	}
	if err := Validate(&o); err != nil {
		return nil, err
	}
	return &o, nil
}
