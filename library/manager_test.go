package library

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

// eachStore runs fn once per Store implementation.
func eachStore(t *testing.T, fn func(t *testing.T, lm *LibraryManager)) {
	t.Helper()
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemStore() },
		"sqlite": func(t *testing.T) Store { return tempDB(t) },
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			lm := NewLibraryManager(WithStore(open(t)), WithClock(fixedClock()))
			fn(t, lm)
		})
	}
}

func TestAddBookAssignsSequentialIDs(t *testing.T) {
	eachStore(t, func(t *testing.T, lm *LibraryManager) {
		titles := []string{"1984", "A Brief History of Time", "The Great Gatsby"}
		for i, title := range titles {
			id, err := lm.AddBook(title, "Author", "Genre")
			require.NoError(t, err)
			assert.Equal(t, int64(i+1), id)
		}

		books, err := lm.Books()
		require.NoError(t, err)
		require.Len(t, books, 3)
		for _, b := range books {
			assert.True(t, b.Available, "new book %d should be available", b.ID)
		}
	})
}

func TestIDsNotReusedAfterRemoval(t *testing.T) {
	eachStore(t, func(t *testing.T, lm *LibraryManager) {
		b1, _ := lm.AddBook("One", "A", "G")
		b2, _ := lm.AddBook("Two", "A", "G")
		require.NoError(t, lm.RemoveBook(b1))
		b3, err := lm.AddBook("Three", "A", "G")
		require.NoError(t, err)
		assert.Equal(t, int64(3), b3)
		assert.NotEqual(t, b2, b3)

		u1, _ := lm.AddUser("Alice")
		require.NoError(t, lm.RemoveUser(u1))
		u2, err := lm.AddUser("Bob")
		require.NoError(t, err)
		assert.Equal(t, int64(2), u2)
	})
}

// Scenario A then C.
func TestLendAndReturn(t *testing.T) {
	eachStore(t, func(t *testing.T, lm *LibraryManager) {
		userID, err := lm.AddUser("Alice")
		require.NoError(t, err)
		require.Equal(t, int64(1), userID)
		bookID, err := lm.AddBook("1984", "Orwell", "Fiction")
		require.NoError(t, err)
		require.Equal(t, int64(1), bookID)

		tx, err := lm.LendBook(1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), tx.ID)
		assert.Equal(t, int64(1), tx.UserID)
		assert.Equal(t, int64(1), tx.BookID)
		assert.Equal(t, ActionLend, tx.Action)

		book, _ := lm.GetBook(1)
		assert.False(t, book.Available)
		user, _ := lm.GetUser(1)
		assert.Equal(t, []int64{1}, user.BorrowedBooks)

		tx, err = lm.ReturnBook(1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), tx.ID)
		assert.Equal(t, ActionReturn, tx.Action)

		book, _ = lm.GetBook(1)
		assert.True(t, book.Available)
		user, _ = lm.GetUser(1)
		assert.Empty(t, user.BorrowedBooks)

		txs, err := lm.Transactions()
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, ActionLend, txs[0].Action)
		assert.Equal(t, ActionReturn, txs[1].Action)
		assert.True(t, txs[1].Timestamp.After(txs[0].Timestamp))
	})
}

// Scenario B.
func TestDoubleLendFails(t *testing.T) {
	eachStore(t, func(t *testing.T, lm *LibraryManager) {
		alice, _ := lm.AddUser("Alice")
		bob, _ := lm.AddUser("Bob")
		book, _ := lm.AddBook("1984", "Orwell", "Fiction")

		_, err := lm.LendBook(alice, book)
		require.NoError(t, err)

		for _, user := range []int64{alice, bob} {
			_, err = lm.LendBook(user, book)
			assert.ErrorIs(t, err, ErrUnavailable)
		}

		txs, _ := lm.Transactions()
		assert.Len(t, txs, 1)
		u, _ := lm.GetUser(bob)
		assert.Empty(t, u.BorrowedBooks)
	})
}

func TestCirculationErrors(t *testing.T) {
	eachStore(t, func(t *testing.T, lm *LibraryManager) {
		alice, _ := lm.AddUser("Alice")
		bob, _ := lm.AddUser("Bob")
		book, _ := lm.AddBook("1984", "Orwell", "Fiction")
		other, _ := lm.AddBook("Dune", "Herbert", "Science Fiction")
		_, err := lm.LendBook(alice, book)
		require.NoError(t, err)

		tests := []struct {
			name string
			op   func() (Transaction, error)
			want error
		}{
			{"lend to unknown user", func() (Transaction, error) { return lm.LendBook(99, other) }, ErrNotFound},
			{"lend unknown book", func() (Transaction, error) { return lm.LendBook(alice, 99) }, ErrNotFound},
			{"lend lent book", func() (Transaction, error) { return lm.LendBook(bob, book) }, ErrUnavailable},
			{"return from unknown user", func() (Transaction, error) { return lm.ReturnBook(99, book) }, ErrNotFound},
			{"return book held by someone else", func() (Transaction, error) { return lm.ReturnBook(bob, book) }, ErrNotBorrowed},
			{"return never borrowed", func() (Transaction, error) { return lm.ReturnBook(alice, other) }, ErrNotBorrowed},
			{"return unknown book", func() (Transaction, error) { return lm.ReturnBook(alice, 99) }, ErrNotBorrowed},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := tt.op()
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
			})
		}

		txs, _ := lm.Transactions()
		assert.Len(t, txs, 1, "failed operations must not record transactions")
	})
}

// Scenario D and remove_user idempotence.
func TestRemoveUnknownReportsNotFound(t *testing.T) {
	eachStore(t, func(t *testing.T, lm *LibraryManager) {
		lm.AddBook("1984", "Orwell", "Fiction")

		assert.ErrorIs(t, lm.RemoveBook(99), ErrNotFound)
		books, _ := lm.Books()
		assert.Len(t, books, 1)

		id, _ := lm.AddUser("Alice")
		require.NoError(t, lm.RemoveUser(id))
		for n := 0; n < 3; n++ {
			assert.ErrorIs(t, lm.RemoveUser(id), ErrNotFound)
		}
	})
}

func TestReturnRemovedBook(t *testing.T) {
	eachStore(t, func(t *testing.T, lm *LibraryManager) {
		alice, _ := lm.AddUser("Alice")
		book, _ := lm.AddBook("1984", "Orwell", "Fiction")
		_, err := lm.LendBook(alice, book)
		require.NoError(t, err)
		require.NoError(t, lm.RemoveBook(book))

		tx, err := lm.ReturnBook(alice, book)
		require.NoError(t, err)
		assert.Equal(t, book, tx.BookID)

		u, _ := lm.GetUser(alice)
		assert.Empty(t, u.BorrowedBooks)
		require.NoError(t, lm.VerifyTransactions())
	})
}

func TestReturnedRowsAreCopies(t *testing.T) {
	eachStore(t, func(t *testing.T, lm *LibraryManager) {
		alice, _ := lm.AddUser("Alice")
		book, _ := lm.AddBook("1984", "Orwell", "Fiction")
		lm.LendBook(alice, book)

		u, _ := lm.GetUser(alice)
		u.BorrowedBooks[0] = 42
		users, _ := lm.Users()
		users[0].BorrowedBooks = nil

		u, _ = lm.GetUser(alice)
		assert.Equal(t, []int64{book}, u.BorrowedBooks)
	})
}

func TestAvailabilityMatchesHolders(t *testing.T) {
	eachStore(t, func(t *testing.T, lm *LibraryManager) {
		for _, name := range []string{"Alice", "Bob", "Carol"} {
			lm.AddUser(name)
		}
		for i := 0; i < 5; i++ {
			lm.AddBook("Book", "Author", []string{"Fiction", "Science"}[i%2])
		}
		ops := []struct {
			lend       bool
			user, book int64
		}{
			{true, 1, 1}, {true, 2, 2}, {true, 1, 3}, {false, 1, 1},
			{true, 3, 1}, {false, 2, 2}, {true, 2, 5}, {true, 1, 5},
		}
		for _, op := range ops {
			if op.lend {
				lm.LendBook(op.user, op.book)
			} else {
				lm.ReturnBook(op.user, op.book)
			}
		}

		books, _ := lm.Books()
		users, _ := lm.Users()
		for _, b := range books {
			holders := 0
			for _, u := range users {
				if u.Holds(b.ID) {
					holders++
				}
			}
			if b.Available {
				assert.Zero(t, holders, "book %d", b.ID)
			} else {
				assert.Equal(t, 1, holders, "book %d", b.ID)
			}
		}

		txs, _ := lm.Transactions()
		assert.Len(t, txs, 7)
		for i, tx := range txs {
			assert.Equal(t, int64(i+1), tx.ID)
		}
		require.NoError(t, lm.VerifyTransactions())
	})
}

func TestKind(t *testing.T) {
	assert.Equal(t, "none", Kind(nil))
	assert.Equal(t, "not_found", Kind(ErrNotFound))
	assert.Equal(t, "unavailable", Kind(ErrUnavailable))
	assert.Equal(t, "not_borrowed", Kind(ErrNotBorrowed))
	assert.Equal(t, "ledger_broken", Kind(ErrLedgerBroken))
	assert.Equal(t, "internal", Kind(errors.New("boom")))
}
