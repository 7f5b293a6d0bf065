package sampleapi

import "github.com/samvad-hq/completion-bench/internal/domain"

// DefaultBookCount is the number of records GET /books returns unless configured otherwise.
const DefaultBookCount = 100

// SampleBook is the record repeated in every listing.
var SampleBook = domain.Book{
	Author: "Steve Gordon",
	Date:   "2020-03-20",
	ISBN:   "123456789",
	Name:   "This is a book title!",
}

// Books synthesizes n copies of SampleBook.
func Books(n int) []domain.Book {
	if n < 0 {
		n = 0
	}
	books := make([]domain.Book, n)
	for i := range books {
		books[i] = SampleBook
	}
	return books
}
