package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

const spoolPrefix = "pending"

// FSSpool keeps one JSON file per pending report. File names sort by
// enqueue time so Drain replays oldest first.
type FSSpool struct {
	blobs storage.BlobStore
}

func NewFSSpool(blobs storage.BlobStore) *FSSpool {
	return &FSSpool{blobs: blobs}
}

func (s *FSSpool) Enqueue(_ context.Context, r Report) error {
	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%020d-%s.json", spoolPrefix, time.Now().UnixNano(), r.ID)
	_, err = s.blobs.Put(key, bytes.NewReader(buf))
	return err
}

func (s *FSSpool) Drain(ctx context.Context, fn func(Report) error) (int, error) {
	keys, err := s.blobs.List(spoolPrefix)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		r, err := s.read(k)
		if err != nil {
			// unreadable entries would block the queue forever
			_ = s.blobs.Delete(k)
			continue
		}
		if err := fn(r); err != nil {
			return n, err
		}
		if err := s.blobs.Delete(k); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *FSSpool) read(key string) (Report, error) {
	rc, err := s.blobs.Get(key)
	if err != nil {
		return Report{}, err
	}
	defer rc.Close()
	var r Report
	err = json.NewDecoder(rc).Decode(&r)
	return r, err
}
