// Package report projects catalog state into summary charts. It only reads
// through Source and never changes the catalog.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"library-catalog/library"
)

// Source is the read-only view of a catalog that charts are drawn from.
// *library.LibraryManager satisfies it.
type Source interface {
	Books() ([]library.Book, error)
	Users() ([]library.User, error)
}

// Bar is one labelled count in a bar chart.
type Bar struct {
	Label string
	Value int
}

// Slice is one share of a pie chart.
type Slice struct {
	Label   string
	Value   int
	Percent float64
}

// Chart is a titled chart ready to render.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Bars   []Bar
	Slices []Slice
	// Colors names the colour of each bar series or pie slice in order.
	Colors []string
}

// GenreCounts counts books per genre, most common first and ties by name.
func GenreCounts(books []library.Book) Chart {
	counts := map[string]int{}
	for _, b := range books {
		counts[b.Genre]++
	}
	bars := make([]Bar, 0, len(counts))
	for genre, n := range counts {
		bars = append(bars, Bar{Label: genre, Value: n})
	}
	slices.SortFunc(bars, func(a, b Bar) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return Chart{Title: "Books by Genre", XLabel: "Genre", YLabel: "Number of Books", Bars: bars, Colors: []string{"skyblue"}}
}

// BorrowCounts gives each user's current number of borrowed books, in the
// order users are listed.
func BorrowCounts(users []library.User) Chart {
	bars := make([]Bar, len(users))
	for i, u := range users {
		bars[i] = Bar{Label: strconv.FormatInt(u.ID, 10), Value: len(u.BorrowedBooks)}
	}
	return Chart{Title: "Books Borrowed by Users", XLabel: "User ID", YLabel: "Number of Books Borrowed", Bars: bars, Colors: []string{"orange"}}
}

// Availability splits books into available and lent out. An empty catalog
// yields no slices.
func Availability(books []library.Book) Chart {
	c := Chart{Title: "Book Availability", Colors: []string{"green", "red"}}
	if len(books) == 0 {
		return c
	}
	available := 0
	for _, b := range books {
		if b.Available {
			available++
		}
	}
	total := float64(len(books))
	c.Slices = []Slice{
		{Label: "Available", Value: available, Percent: 100 * float64(available) / total},
		{Label: "Not Available", Value: len(books) - available, Percent: 100 * float64(len(books)-available) / total},
	}
	return c
}

// Charts builds all three charts from src.
func Charts(src Source) ([]Chart, error) {
	books, err := src.Books()
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	users, err := src.Users()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return []Chart{GenreCounts(books), BorrowCounts(users), Availability(books)}, nil
}
