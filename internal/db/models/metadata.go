package models

// MetadataChanges are the fields an apply run writes to YouTube. Empty title
// or description means "leave unchanged"; tags are merged, never replaced.
type MetadataChanges struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// MetadataSnapshot is the title, description and tags of a video at one point in time.
type MetadataSnapshot struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// ApplyOptions controls a single write to YouTube.
type ApplyOptions struct {
	// DryRun logs the intended change without touching YouTube. The sink also
	// has its own configured dry-run flag; either one being set wins.
	DryRun bool
	// RequireConfirmation asks the confirmation provider before writing.
	RequireConfirmation bool
}

// ApplyOutcome reports what a sink did with one update request.
type ApplyOutcome struct {
	Applied  bool             `json:"applied"`
	DryRun   bool             `json:"dry_run"`
	Declined bool             `json:"declined"`
	Before   MetadataSnapshot `json:"before"`
	After    MetadataSnapshot `json:"after"`
}
