package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase()
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabasesAreIsolated(t *testing.T) {
	a := tempDB(t)
	b := tempDB(t)

	require.NoError(t, a.InsertBook(Book{ID: 1, Title: "1984", Author: "Orwell", Genre: "Fiction", Available: true}))

	books, err := b.AllBooks()
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestCheckoutFlow(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, db.InsertBook(Book{ID: 1, Title: "Book", Author: "Author", Genre: "Fiction", Available: true}))
	require.NoError(t, db.InsertUser(User{ID: 1, Name: "Alice"}))

	ts := time.Date(2024, 3, 1, 12, 0, 0, 123, time.UTC)
	lent := Book{ID: 1, Available: false}
	err := db.RecordCirculation(&lent, User{ID: 1, Name: "Alice", BorrowedBooks: []int64{1}},
		Transaction{ID: 1, UserID: 1, BookID: 1, Action: ActionLend, Timestamp: ts, Digest: "ab"})
	require.NoError(t, err)

	book, err := db.GetBook(1)
	require.NoError(t, err)
	assert.False(t, book.Available)
	assert.Equal(t, "Fiction", book.Genre)

	user, err := db.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, user.BorrowedBooks)

	txs, err := db.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, ts.Equal(txs[0].Timestamp))
	assert.Equal(t, ActionLend, txs[0].Action)
	assert.Equal(t, "ab", txs[0].Digest)
}

func TestRecordCirculationIsAtomic(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, db.InsertBook(Book{ID: 1, Title: "Book", Author: "Author", Genre: "Fiction", Available: true}))

	// user 7 does not exist, so the book update must roll back
	lent := Book{ID: 1, Available: false}
	err := db.RecordCirculation(&lent, User{ID: 7, BorrowedBooks: []int64{1}},
		Transaction{ID: 1, UserID: 7, BookID: 1, Action: ActionLend, Timestamp: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)

	book, _ := db.GetBook(1)
	assert.True(t, book.Available)
	txs, _ := db.Transactions()
	assert.Empty(t, txs)
}

func TestDeleteReportsMissingRows(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, db.InsertUser(User{ID: 1, Name: "Alice"}))

	ok, err := db.DeleteUser(1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.DeleteUser(1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = db.GetUser(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserWithoutBorrowedBooks(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, db.InsertUser(User{ID: 1, Name: "Alice"}))

	users, err := db.AllUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotNil(t, users[0].BorrowedBooks)
	assert.Empty(t, users[0].BorrowedBooks)
}
