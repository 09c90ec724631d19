package filestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizito-simon15/montessori-sub000/core"
)

func TestLocalStore(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name     string
		folder   string
		filename string
		wantErr  error
	}{
		{name: "pdf", folder: "purchases", filename: "maize.PDF"},
		{name: "jpg in nested folder", folder: "expenditures/2024", filename: "receipt.jpg"},
		{name: "unknown type", folder: "purchases", filename: "notes.txt", wantErr: ErrFileType},
		{name: "no folder", folder: "", filename: "a.pdf", wantErr: ErrBadKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := store.Save(ctx, tt.folder, tt.filename, strings.NewReader("content"))
			if err != tt.wantErr {
				t.Fatalf("Save() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			assert.True(t, strings.HasPrefix(key, tt.folder+"/"))
			assert.True(t, strings.HasSuffix(key, strings.ToLower(tt.filename[strings.LastIndex(tt.filename, "."):])))

			f, err := store.Open(key)
			require.NoError(t, err)
			data, _ := io.ReadAll(f)
			_ = f.Close()
			assert.Equal(t, "content", string(data))

			require.NoError(t, store.Remove(key))
			_, err = store.Open(key)
			assert.Equal(t, core.ErrFileNotFound, err)
		})
	}
}

func TestLocalStore_badKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../secret.pdf", "a/../../b.pdf"} {
		if _, err := store.Open(key); err != ErrBadKey {
			t.Errorf("Open(%q) error = %v, wantErr %v", key, err, ErrBadKey)
		}
		if err := store.Remove(key); err != ErrBadKey {
			t.Errorf("Remove(%q) error = %v, wantErr %v", key, err, ErrBadKey)
		}
	}
}
