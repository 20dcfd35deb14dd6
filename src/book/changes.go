package book

// Target tag slots a ChangeMap can address. The mapping from logical
// metadata fields to slots is fixed: narrator gets its own slot, genres are
// discrete repeated entries, album carries the "Series #Sequence" composite.
const (
	SlotTitle       = "title"
	SlotArtist      = "artist"
	SlotAlbum       = "album"
	SlotNarrator    = "narrator"
	SlotGenres      = "genres"
	SlotSeries      = "series"
	SlotSequence    = "sequence"
	SlotYear        = "year"
	SlotDescription = "description"
	SlotPublisher   = "publisher"
	SlotISBN        = "isbn"
	SlotCover       = "cover"
)

// FieldChange is one pending tag mutation. NewValues is set for slots that
// write discrete repeated entries (genres); New always carries a printable
// rendering of the target value.
type FieldChange struct {
	Old       string   `json:"old"`
	New       string   `json:"new"`
	NewValues []string `json:"new_values,omitempty"`
}

// ChangeMap is the minimal set of slot mutations that brings one file's
// embedded tags in line with canonical metadata. An empty map means the
// file is up to date.
type ChangeMap map[string]FieldChange

// WriteError describes one file that could not be written.
type WriteError struct {
	FileID string `json:"file_id"`
	Path   string `json:"path"`
	Error  string `json:"error"`
}

// WriteResult is the full accounting of a tag write batch. One outcome per
// requested file, always: Success+Failed equals the number of requests.
type WriteResult struct {
	Success int          `json:"success"`
	Failed  int          `json:"failed"`
	Errors  []WriteError `json:"errors"`
	Backups []string     `json:"backups,omitempty"`
}

// RenameResult is the outcome of one rename attempt.
type RenameResult struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
	NewPath string `json:"new_path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SyncItem pairs a written file with the metadata to push for it.
type SyncItem struct {
	Path     string   `json:"path"`
	Metadata Metadata `json:"metadata"`
}

// PushFailure is a hard per-item push error. Unmatched items are not
// failures and are reported separately.
type PushFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Status int    `json:"status,omitempty"`
}

// PushResult summarizes a push batch.
type PushResult struct {
	Updated   int           `json:"updated"`
	Unmatched []string      `json:"unmatched"`
	Failed    []PushFailure `json:"failed"`
}
