package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bitmerch/bitmerch/internal/domain"
	"github.com/bitmerch/bitmerch/internal/store"
	"github.com/bitmerch/bitmerch/pkg/idx"
	"github.com/stretchr/testify/require"
)

type fakeConverter struct {
	url string
	err error

	gotFile     string
	gotPassword string
}

func (f *fakeConverter) Convert(_ context.Context, fileName, password string) (string, error) {
	f.gotFile = fileName
	f.gotPassword = password
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// createAdmin inserts an admin user and returns its id. Products carry a
// foreign key to their uploader, so tests need a real row to hang them off.
func createAdmin(t *testing.T, st store.Store) string {
	t.Helper()

	id := idx.New().String()
	err := st.Users().CreateUser(context.Background(), domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "unused",
		Role:         "admin",
	})
	require.NoError(t, err)
	return id
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	svc := &ProductService{Store: newTestStore(t)}
	adminID := createAdmin(t, svc.Store)

	p, err := svc.CreateProduct(context.Background(), adminID, "archive.zip", "public")
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	got, err := svc.Store.Products().GetProductByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "archive.zip", got.FileName)
	require.Equal(t, adminID, got.UserID)
	require.Equal(t, "public", got.Destination)
}

func TestGetPage(t *testing.T) {
	t.Parallel()

	svc := &ProductService{Store: newTestStore(t)}
	adminID := createAdmin(t, svc.Store)
	for i := range 7 {
		_, err := svc.CreateProduct(context.Background(), adminID, fmt.Sprintf("file-%d.zip", i), "public")
		require.NoError(t, err)
	}

	t.Run("full page", func(t *testing.T) {
		page, err := svc.GetPage(context.Background(), 1, 3)
		require.NoError(t, err)
		require.Len(t, page.Products, 3)
		require.EqualValues(t, 3, page.PageCount)
	})

	t.Run("short last page", func(t *testing.T) {
		page, err := svc.GetPage(context.Background(), 3, 3)
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		require.EqualValues(t, 3, page.PageCount)
	})

	t.Run("page beyond the end is empty, not an error", func(t *testing.T) {
		page, err := svc.GetPage(context.Background(), 9, 3)
		require.NoError(t, err)
		require.Empty(t, page.Products)
		require.EqualValues(t, 3, page.PageCount)
	})

	t.Run("exact division", func(t *testing.T) {
		page, err := svc.GetPage(context.Background(), 1, 7)
		require.NoError(t, err)
		require.Len(t, page.Products, 7)
		require.EqualValues(t, 1, page.PageCount)
	})
}

func TestPrepareArchive(t *testing.T) {
	t.Parallel()

	t.Run("unknown product", func(t *testing.T) {
		svc := &ProductService{Store: newTestStore(t), Converter: &fakeConverter{}}
		_, err := svc.PrepareArchive(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
		require.ErrorIs(t, err, ErrUnknownProduct)
	})

	t.Run("converter failure", func(t *testing.T) {
		conv := &fakeConverter{err: errors.New("boom")}
		svc := &ProductService{Store: newTestStore(t), Converter: conv}
		adminID := createAdmin(t, svc.Store)

		p, err := svc.CreateProduct(context.Background(), adminID, "archive.zip", "public")
		require.NoError(t, err)

		_, err = svc.PrepareArchive(context.Background(), p.ID)
		require.ErrorIs(t, err, ErrArchiveFailed)
	})

	t.Run("success", func(t *testing.T) {
		conv := &fakeConverter{url: "https://files.example.com/tmp/archive.zip"}
		svc := &ProductService{Store: newTestStore(t), Converter: conv}
		adminID := createAdmin(t, svc.Store)

		p, err := svc.CreateProduct(context.Background(), adminID, "archive.zip", "public")
		require.NoError(t, err)

		grant, err := svc.PrepareArchive(context.Background(), p.ID)
		require.NoError(t, err)
		require.Equal(t, conv.url, grant.TempDownloadURL)
		require.Equal(t, "archive.zip", conv.gotFile)
		require.NotEmpty(t, grant.Password)
		require.Equal(t, conv.gotPassword, grant.Password)
		require.Contains(t, grant.Message, "deleted")
	})

	t.Run("each grant gets a fresh password", func(t *testing.T) {
		conv := &fakeConverter{url: "https://files.example.com/tmp/archive.zip"}
		svc := &ProductService{Store: newTestStore(t), Converter: conv}
		adminID := createAdmin(t, svc.Store)

		p, err := svc.CreateProduct(context.Background(), adminID, "archive.zip", "public")
		require.NoError(t, err)

		first, err := svc.PrepareArchive(context.Background(), p.ID)
		require.NoError(t, err)
		second, err := svc.PrepareArchive(context.Background(), p.ID)
		require.NoError(t, err)
		require.NotEqual(t, first.Password, second.Password)
	})
}
