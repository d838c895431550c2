package library

import (
	"slices"
	"time"
)

// Book is a catalog entry. Available is false while exactly one user holds it.
type Book struct {
	ID        int64  `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Author    string `json:"author" yaml:"author"`
	Genre     string `json:"genre" yaml:"genre"`
	Available bool   `json:"available" yaml:"available"`
}

// User represents a library patron and the books they currently hold,
// in the order they were borrowed.
type User struct {
	ID            int64   `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	BorrowedBooks []int64 `json:"borrowed_books" yaml:"borrowed_books"`
}

// Holds reports whether bookID is in the user's borrowed list.
func (u *User) Holds(bookID int64) bool {
	return slices.Contains(u.BorrowedBooks, bookID)
}

func (u User) clone() User {
	u.BorrowedBooks = append([]int64{}, u.BorrowedBooks...)
	return u
}

// Action is the kind of circulation event a Transaction records.
type Action string

const (
	ActionLend   Action = "Lend"
	ActionReturn Action = "Return"
)

// Transaction is an immutable entry in the circulation log.
type Transaction struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	// Digest chains this entry to the one before it, see ledger.go.
	Digest string `json:"digest"`
}
