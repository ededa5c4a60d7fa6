package service

import (
	"context"
	"errors"

	"github.com/bitmerch/bitmerch/internal/archive"
	"github.com/bitmerch/bitmerch/internal/domain"
	"github.com/bitmerch/bitmerch/internal/store"
	"github.com/bitmerch/bitmerch/pkg/idx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
	"github.com/google/uuid"
)

var (
	ErrUnknownProduct = errors.New("unknown_product")
	ErrArchiveFailed  = errors.New("archive_generation_failed")
)

// ProductService owns the product catalogue: admin uploads, paginated
// listing, and turning a purchased product into a protected download.
type ProductService struct {
	Store     store.Store
	Converter archive.Converter
}

// CreateProduct records an uploaded archive against the admin who sent it.
func (s *ProductService) CreateProduct(ctx context.Context, adminID, fileName, destination string) (domain.Product, error) {
	p := domain.Product{
		ID:          idx.New().String(),
		UserID:      adminID,
		FileName:    fileName,
		Destination: destination,
	}

	if err := s.Store.Products().CreateProduct(ctx, p); err != nil {
		return domain.Product{}, err
	}

	slogx.FromContext(ctx).Info("product uploaded", "product_id", p.ID, "file", fileName)
	return p, nil
}

// GetPage returns one page of products. Page numbers start at 1; PageCount
// is the number of pages at the given limit.
func (s *ProductService) GetPage(ctx context.Context, page, limit int64) (domain.ProductPage, error) {
	offset := (page - 1) * limit

	count, err := s.Store.Products().CountProducts(ctx)
	if err != nil {
		return domain.ProductPage{}, err
	}

	products, err := s.Store.Products().ListProducts(ctx, limit, offset)
	if err != nil {
		return domain.ProductPage{}, err
	}

	pageCount := count / limit
	if count%limit != 0 {
		pageCount++
	}

	return domain.ProductPage{Products: products, PageCount: pageCount}, nil
}

// PrepareArchive asks the conversion service for a password-protected,
// time-limited copy of the product's file. The password is generated fresh
// per request and returned only to this caller.
func (s *ProductService) PrepareArchive(ctx context.Context, productID string) (domain.ArchiveGrant, error) {
	l := slogx.FromContext(ctx)

	p, err := s.Store.Products().GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ArchiveGrant{}, ErrUnknownProduct
		}
		return domain.ArchiveGrant{}, err
	}

	password := uuid.NewString()

	url, err := s.Converter.Convert(ctx, p.FileName, password)
	if err != nil {
		l.Error("archive conversion failed", "product_id", p.ID, "error", err)
		return domain.ArchiveGrant{}, ErrArchiveFailed
	}

	return domain.ArchiveGrant{
		TempDownloadURL: url,
		Password:        password,
		Message:         "File will be deleted in 3 hours",
	}, nil
}
