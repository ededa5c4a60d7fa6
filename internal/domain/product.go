package domain

import "time"

// Product is an uploaded zip archive offered for paid download.
type Product struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"` // admin who uploaded it
	FileName    string    `json:"fileName"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products  []Product `json:"products"`
	PageCount int64     `json:"pageCount"`
}

// ArchiveGrant is what a paid download request receives: a time-limited URL
// to a password-protected archive.
type ArchiveGrant struct {
	TempDownloadURL string `json:"tempDownloadUrl"`
	Password        string `json:"password"`
	Message         string `json:"message"`
}
