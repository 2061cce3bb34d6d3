// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, Entry{Operation: "convert word", Source: "a.docx", Target: "a.pdf", Status: "ok", OK: true, CreatedAt: base}))
	require.NoError(t, s.Record(ctx, Entry{Operation: "mail send", Source: "work", Status: "Mailbox: x not found!", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.Record(ctx, Entry{Operation: "convert excel", Source: "b.xlsx", Target: "b.pdf", Status: "ok", OK: true, CreatedAt: base.Add(2 * time.Minute)}))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "convert excel", all[0].Operation, "newest first")
	assert.Equal(t, "convert word", all[2].Operation)
	for _, e := range all {
		assert.NotEmpty(t, e.ID)
	}
	assert.False(t, all[1].OK)
	assert.Equal(t, "Mailbox: x not found!", all[1].Status)
	assert.True(t, all[2].CreatedAt.Equal(base))

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecordFillsDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{Operation: "mail draft", Status: "ok", OK: true}))
	got, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].ID, 36)
	assert.WithinDuration(t, time.Now(), got[0].CreatedAt, time.Minute)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Entry{Operation: "convert word", Status: "ok", OK: true}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestExport(t *testing.T) {
	entries := []Entry{
		{ID: "1", Operation: "convert word", Source: "a.docx", Target: "a.pdf", Status: "ok", OK: true,
			CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, entries))
	assert.Contains(t, buf.String(), "operation: convert word")

	var decoded []Entry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a.pdf", decoded[0].Target)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop().Record(context.Background(), Entry{}))
}
