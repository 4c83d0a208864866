package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-builder/internal/models"
	appErrors "github.com/noah-isme/timetable-builder/pkg/errors"
	"github.com/noah-isme/timetable-builder/pkg/storage"
)

// Medium is a key-value store able to replace one value atomically.
// Get returns storage.ErrKeyNotFound when the key has never been written.
type Medium interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type storeObserver interface {
	ObserveStoreOperation(op string, duration time.Duration, err error)
}

// StoreOptions tunes a SemesterStore.
type StoreOptions struct {
	Key      string
	MaxBytes int64
	Logger   *zap.Logger
	Observer storeObserver
}

// SemesterStore keeps the whole semester collection as one JSON array under a
// single key. Every read decodes the whole collection and every write
// re-encodes it.
type SemesterStore struct {
	medium   Medium
	key      string
	maxBytes int64
	logger   *zap.Logger
	observer storeObserver
	revision atomic.Uint64
}

// NewSemesterStore constructs a store over medium.
func NewSemesterStore(medium Medium, opts StoreOptions) *SemesterStore {
	if opts.Key == "" {
		opts.Key = "college-timetable-maker"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &SemesterStore{
		medium:   medium,
		key:      opts.Key,
		maxBytes: opts.MaxBytes,
		logger:   opts.Logger,
		observer: opts.Observer,
	}
}

// Key returns the storage entry name.
func (s *SemesterStore) Key() string {
	return s.key
}

// Revision counts successful writes made through this store since start-up.
func (s *SemesterStore) Revision() uint64 {
	return s.revision.Load()
}

// LoadAll returns the persisted collection. Nothing stored yet and content
// that does not decode as a JSON array of semesters both yield an empty
// collection; only a failing medium is reported as an error. Records that
// decode but look incomplete are kept as they are so that the next save does
// not drop them.
func (s *SemesterStore) LoadAll(ctx context.Context) ([]models.Semester, error) {
	start := time.Now()
	raw, err := s.medium.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			s.observe("load", start, nil)
			return []models.Semester{}, nil
		}
		s.observe("load", start, err)
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read semesters")
	}
	s.observe("load", start, nil)

	semesters, err := decodeStored(raw)
	if err != nil {
		s.logger.Warn("stored semesters unreadable, treating as empty",
			zap.String("key", s.key),
			zap.Int("bytes", len(raw)),
			zap.Error(err),
		)
		return []models.Semester{}, nil
	}
	return semesters, nil
}

// SaveAll replaces the persisted collection.
func (s *SemesterStore) SaveAll(ctx context.Context, semesters []models.Semester) error {
	if semesters == nil {
		semesters = []models.Semester{}
	}
	payload, err := json.Marshal(semesters)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode semesters")
	}
	if s.maxBytes > 0 && int64(len(payload)) > s.maxBytes {
		return appErrors.Clone(appErrors.ErrStorage, fmt.Sprintf("storage quota exceeded: %d bytes over a %d byte limit", len(payload), s.maxBytes))
	}

	start := time.Now()
	if err := s.medium.Set(ctx, s.key, payload); err != nil {
		s.observe("save", start, err)
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to save semesters")
	}
	s.observe("save", start, nil)

	rev := s.revision.Add(1)
	s.logger.Debug("semesters saved", zap.String("key", s.key), zap.Int("count", len(semesters)), zap.Int("bytes", len(payload)), zap.Uint64("revision", rev))
	return nil
}

func (s *SemesterStore) observe(op string, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveStoreOperation(op, time.Since(start), err)
}

func decodeStored(raw []byte) ([]models.Semester, error) {
	var semesters []models.Semester
	if err := json.Unmarshal(raw, &semesters); err != nil {
		return nil, err
	}
	if semesters == nil {
		semesters = []models.Semester{}
	}
	for i := range semesters {
		semesters[i].Normalize()
	}
	return semesters, nil
}

// DecodeSemesters parses an exported document offered for import. The
// top-level value must be an array and every element an object with a
// non-empty, unique string id.
func DecodeSemesters(raw []byte) ([]models.Semester, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("top-level value is not an array: %w", err)
	}
	if elements == nil {
		return nil, fmt.Errorf("top-level value is null")
	}

	semesters := make([]models.Semester, 0, len(elements))
	seen := make(map[string]struct{}, len(elements))
	for i, element := range elements {
		var head struct {
			ID *string `json:"id"`
		}
		if err := json.Unmarshal(element, &head); err != nil {
			return nil, fmt.Errorf("element %d is not an object: %w", i, err)
		}
		if head.ID == nil || *head.ID == "" {
			return nil, fmt.Errorf("element %d has no id", i)
		}
		if _, dup := seen[*head.ID]; dup {
			return nil, fmt.Errorf("element %d repeats id %q", i, *head.ID)
		}
		seen[*head.ID] = struct{}{}

		var semester models.Semester
		if err := json.Unmarshal(element, &semester); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		semester.Normalize()
		semesters = append(semesters, semester)
	}
	return semesters, nil
}
