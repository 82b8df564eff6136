// Package source fetches brand mentions from external services and
// normalizes them into Post records.
package source

import (
	"context"
	"errors"
	"sort"

	"github.com/brandpulse/brandpulse/pkg/models"
	"github.com/brandpulse/brandpulse/pkg/utils"
)

// ErrAuth marks rejected or missing credentials. Never retried; the run
// fails immediately.
var ErrAuth = errors.New("source: authentication failed")

// Query describes one mention search.
type Query struct {
	Keywords    []string
	WindowHours int
	MaxResults  int
}

// Source is one upstream provider of brand mentions.
type Source interface {
	// Name identifies the source in logs and post records.
	Name() string

	// Fetch returns posts matching the query, newest first.
	Fetch(ctx context.Context, q Query) ([]models.Post, error)
}

// Merge combines posts from multiple sources: duplicates (by ID) are
// dropped, spam is filtered out, and the result is sorted newest first.
func Merge(batches ...[]models.Post) []models.Post {
	seen := make(map[string]struct{})
	var out []models.Post
	for _, batch := range batches {
		for _, p := range batch {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			if utils.IsSpam(p.Text) {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
