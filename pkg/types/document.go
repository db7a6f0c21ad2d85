// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Document pairs a source URL with the local path of its downloaded PDF.
type Document struct {
	// URL is the absolute URL the document was discovered at.
	URL string `json:"url" yaml:"url"`

	// Path is the local filesystem path of the downloaded PDF.
	Path string `json:"path" yaml:"path"`
}

// Artifact is a finalized merged output file. Artifacts are written once
// and never mutated afterwards.
type Artifact struct {
	// Path is the local filesystem path of the merged PDF.
	Path string `json:"path" yaml:"path"`

	// PartIndex is the 1-based position of this artifact in the run.
	PartIndex int `json:"part_index" yaml:"part_index"`

	// CreatedAt is when the artifact was flushed.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
