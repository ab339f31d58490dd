package storage

import (
	"context"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
	public      bool
}

// MemoryStore is an in-process ObjectStore for local development and tests.
type MemoryStore struct {
	bucket string

	mu      sync.RWMutex
	objects map[string]*memoryObject
}

// NewMemoryStore creates an empty store for bucket.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		objects: make(map[string]*memoryObject),
	}
}

func (m *MemoryStore) Bucket() string {
	return m.bucket
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string, public bool) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[m.bucket+"/"+key] = &memoryObject{data: buf, contentType: contentType, public: public}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, nil
}

func (m *MemoryStore) SetPublic(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return ErrNotFound
	}
	obj.public = true
	return nil
}

// IsPublic reports whether the object exists and is publicly readable.
func (m *MemoryStore) IsPublic(bucket, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[bucket+"/"+key]
	return ok && obj.public
}

// ContentType returns the content type recorded for an object.
func (m *MemoryStore) ContentType(bucket, key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if obj, ok := m.objects[bucket+"/"+key]; ok {
		return obj.contentType
	}
	return ""
}
