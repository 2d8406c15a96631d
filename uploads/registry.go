package uploads

import (
	"sync"
	"time"
)

// File tracks one uploaded video through its encode lifecycle.
type File struct {
	ID                string    `json:"file_id"`
	Filename          string    `json:"filename"`
	OriginalPath      string    `json:"-"`
	FinalPath         string    `json:"-"`
	ContentType       string    `json:"content_type"`
	OriginalSizeMB    float64   `json:"original_size_mb"`
	EncodedSizeMB     float64   `json:"encoded_size_mb,omitempty"`
	ProcessingMethod  string    `json:"processing_method"`
	NeedsEncoding     bool      `json:"needs_encoding"`
	EncodingCompleted bool      `json:"encoding_completed"`
	UploadTime        time.Time `json:"upload_time"`
}

// ValidatedURI tracks an S3 reference that passed remote validation.
// Analysis by URI requires a prior validation call.
type ValidatedURI struct {
	ID          string    `json:"uri_id"`
	URI         string    `json:"s3_uri"`
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	BucketOwner string    `json:"bucket_owner"`
	ValidatedAt time.Time `json:"validated_at"`
}

// Registry is the in-memory record of uploads and validated URIs.
// Entries do not survive a restart; sources must be re-validated.
type Registry struct {
	mu    sync.RWMutex
	files map[string]*File
	uris  map[string]*ValidatedURI
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		files: make(map[string]*File),
		uris:  make(map[string]*ValidatedURI),
	}
}

// AddFile records a fresh upload.
func (r *Registry) AddFile(f *File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[f.ID] = f
}

// GetFile returns a copy of the file record.
func (r *Registry) GetFile(id string) (File, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	if !ok {
		return File{}, false
	}
	return *f, true
}

// UpdateFile applies fn to the stored record under the lock.
func (r *Registry) UpdateFile(id string, fn func(*File)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return false
	}
	fn(f)
	return true
}

// AddURI records a validated S3 reference.
func (r *Registry) AddURI(u *ValidatedURI) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uris[u.ID] = u
}

// FindURI looks up a validated entry by its URI string.
func (r *Registry) FindURI(uri string) (ValidatedURI, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.uris {
		if u.URI == uri {
			return *u, true
		}
	}
	return ValidatedURI{}, false
}
