// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package clientstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupDefaultsToNotVoted(t *testing.T) {
	s := New(NewMemoryKV())

	voted, chosen := s.Lookup("p1")

	assert.False(t, voted)
	assert.Nil(t, chosen)
}

func TestRecordThenLookup(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv)

	require.NoError(t, s.Record("p1", 1))
	require.NoError(t, s.Record("p2", 0))

	voted, chosen := s.Lookup("p1")
	assert.True(t, voted)
	require.NotNil(t, chosen)
	assert.Equal(t, 1, *chosen)

	voted, chosen = s.Lookup("p2")
	assert.True(t, voted)
	require.NotNil(t, chosen)
	assert.Equal(t, 0, *chosen)

	voted, _ = s.Lookup("p3")
	assert.False(t, voted)

	// Stored in the browser client's format
	raw, ok, _ := kv.Get(KeyVotedPolls)
	require.True(t, ok)
	assert.JSONEq(t, `["p1","p2"]`, raw)
	raw, ok, _ = kv.Get(KeyUserVotes)
	require.True(t, ok)
	assert.JSONEq(t, `{"p1":1,"p2":0}`, raw)
}

func TestRecordTwiceKeepsOneEntry(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv)

	require.NoError(t, s.Record("p1", 0))
	require.NoError(t, s.Record("p1", 0))

	raw, _, _ := kv.Get(KeyVotedPolls)
	assert.JSONEq(t, `["p1"]`, raw)
}

func TestLookupVotedWithoutChoice(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeyVotedPolls, `["p1"]`))
	s := New(kv)

	voted, chosen := s.Lookup("p1")

	assert.True(t, voted)
	assert.Nil(t, chosen)
}

func TestCorruptStateReadsAsNotVoted(t *testing.T) {
	tests := []struct {
		name       string
		votedPolls string
		userVotes  string
		wantVoted  bool
	}{
		{"garbage voted list", `{not json`, `{"p1":1}`, false},
		{"wrong type voted list", `{"p1":true}`, `{"p1":1}`, false},
		{"garbage choices", `["p1"]`, `oops`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			kv.Set(KeyVotedPolls, tt.votedPolls)
			kv.Set(KeyUserVotes, tt.userVotes)
			s := New(kv)

			voted, chosen := s.Lookup("p1")
			assert.Equal(t, tt.wantVoted, voted)
			assert.Nil(t, chosen)

			// Recording repairs the state
			require.NoError(t, s.Record("p1", 1))
			voted, chosen = s.Lookup("p1")
			assert.True(t, voted)
			require.NotNil(t, chosen)
			assert.Equal(t, 1, *chosen)
		})
	}
}

func TestFileKVPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s := New(NewFileKV(path))
	require.NoError(t, s.Record("p1", 2))

	// A fresh process sees the same state
	reloaded := New(NewFileKV(path))
	voted, chosen := reloaded.Lookup("p1")
	assert.True(t, voted)
	require.NotNil(t, chosen)
	assert.Equal(t, 2, *chosen)
}

func TestFileKVMissingFile(t *testing.T) {
	kv := NewFileKV(filepath.Join(t.TempDir(), "absent.json"))

	_, ok, err := kv.Get(KeyVotedPolls)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileKVCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	kv := NewFileKV(path)

	_, _, err := kv.Get(KeyVotedPolls)
	assert.Error(t, err)

	// Lookups tolerate it and writes replace it
	s := New(kv)
	voted, _ := s.Lookup("p1")
	assert.False(t, voted)
	require.NoError(t, s.Record("p1", 0))

	voted, _ = s.Lookup("p1")
	assert.True(t, voted)
}
