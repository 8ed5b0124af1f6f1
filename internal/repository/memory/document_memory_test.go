package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/model"
	"docstore/internal/repository"
)

func embedded(name string, data []byte) *model.Document {
	return &model.Document{
		StoredName:   name,
		OriginalName: name,
		MimeType:     "application/pdf",
		Size:         int64(len(data)),
		Location:     model.InlineLocation(data),
		UploadedAt:   time.Now().UTC(),
	}
}

func TestDocumentMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentMemory()

	first, err := repo.Create(ctx, embedded("a.pdf", []byte("aaa")))
	require.NoError(t, err)
	second, err := repo.Create(ctx, embedded("b.pdf", []byte("bb")))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("aaa"), got.Location.Data)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
	assert.Nil(t, items[0].Location.Data, "list must not carry inline bytes")

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), repository.ErrNotFound)

	_, err = repo.FindByID(ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	items, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)
}

func TestDocumentMemory_CreateValidates(t *testing.T) {
	repo := NewDocumentMemory()

	doc, err := repo.Create(context.Background(), &model.Document{StoredName: "a"})

	assert.ErrorIs(t, err, model.ErrInvalidDocument)
	assert.Nil(t, doc)
	items, _ := repo.List(context.Background())
	assert.Empty(t, items)
}

func TestDocumentMemory_StoredBytesAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentMemory()
	data := []byte("hello")

	doc, err := repo.Create(ctx, embedded("a.pdf", data))
	require.NoError(t, err)
	data[0] = 'X'
	doc.Location.Data[1] = 'Y'

	got, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Location.Data)
}

func TestDocumentMemory_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, embedded(fmt.Sprintf("%d.pdf", i), []byte{byte(i)}))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 50)
}
