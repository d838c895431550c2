package library

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// LibraryManager owns the catalog: it assigns ids, validates circulation
// and records every lend and return. It is not safe for concurrent use.
type LibraryManager struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	nextBookID int64
	nextUserID int64
	nextTxID   int64
	lastDigest string
}

// Option configures a LibraryManager.
type Option func(*LibraryManager)

// WithStore sets the row store. Defaults to NewMemStore().
func WithStore(s Store) Option {
	return func(lm *LibraryManager) { lm.store = s }
}

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(lm *LibraryManager) { lm.logger = l }
}

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(lm *LibraryManager) { lm.now = now }
}

// NewLibraryManager returns an empty catalog.
func NewLibraryManager(opts ...Option) *LibraryManager {
	lm := &LibraryManager{
		nextBookID: 1,
		nextUserID: 1,
		nextTxID:   1,
	}
	for _, opt := range opts {
		opt(lm)
	}
	if lm.store == nil {
		lm.store = NewMemStore()
	}
	if lm.logger == nil {
		lm.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if lm.now == nil {
		lm.now = time.Now
	}
	lm.logger = lm.logger.With("catalog", uuid.NewString())
	return lm
}

// Close closes the underlying store.
func (lm *LibraryManager) Close() error { return lm.store.Close() }

// ------------------ Books ------------------

// AddBook adds an available book and returns its id.
func (lm *LibraryManager) AddBook(title, author, genre string) (int64, error) {
	b := Book{ID: lm.nextBookID, Title: title, Author: author, Genre: genre, Available: true}
	if err := lm.store.InsertBook(b); err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}
	lm.nextBookID++
	lm.logger.Info("book added", "book_id", b.ID, "title", title)
	return b.ID, nil
}

// RemoveBook deletes a book. Users still holding it are left untouched.
func (lm *LibraryManager) RemoveBook(id int64) error {
	ok, err := lm.store.DeleteBook(id)
	if err != nil {
		return fmt.Errorf("remove book %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	lm.logger.Info("book removed", "book_id", id)
	return nil
}

func (lm *LibraryManager) GetBook(id int64) (Book, error) { return lm.store.GetBook(id) }
func (lm *LibraryManager) Books() ([]Book, error)         { return lm.store.AllBooks() }

// ------------------ Users ------------------

// AddUser registers a user with no borrowed books and returns its id.
func (lm *LibraryManager) AddUser(name string) (int64, error) {
	u := User{ID: lm.nextUserID, Name: name, BorrowedBooks: []int64{}}
	if err := lm.store.InsertUser(u); err != nil {
		return 0, fmt.Errorf("add user: %w", err)
	}
	lm.nextUserID++
	lm.logger.Info("user added", "user_id", u.ID, "name", name)
	return u.ID, nil
}

// RemoveUser deletes a user. Books they hold stay unavailable.
func (lm *LibraryManager) RemoveUser(id int64) error {
	ok, err := lm.store.DeleteUser(id)
	if err != nil {
		return fmt.Errorf("remove user %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	lm.logger.Info("user removed", "user_id", id)
	return nil
}

func (lm *LibraryManager) GetUser(id int64) (User, error) { return lm.store.GetUser(id) }
func (lm *LibraryManager) Users() ([]User, error)         { return lm.store.AllUsers() }

// ------------------ Circulation ------------------

// LendBook lends an available book to a user.
func (lm *LibraryManager) LendBook(userID, bookID int64) (Transaction, error) {
	user, err := lm.store.GetUser(userID)
	if err != nil {
		return Transaction{}, lm.rejected(ActionLend, userID, bookID, err)
	}
	book, err := lm.store.GetBook(bookID)
	if err != nil {
		return Transaction{}, lm.rejected(ActionLend, userID, bookID, err)
	}
	if !book.Available {
		return Transaction{}, lm.rejected(ActionLend, userID, bookID, fmt.Errorf("book %d: %w", bookID, ErrUnavailable))
	}

	book.Available = false
	user.BorrowedBooks = append(user.BorrowedBooks, bookID)
	return lm.record(bookID, &book, user, ActionLend)
}

// ReturnBook takes a book back from the user holding it. A book removed
// from the catalog while lent can still be returned; only the user's list
// and the log change then.
func (lm *LibraryManager) ReturnBook(userID, bookID int64) (Transaction, error) {
	user, err := lm.store.GetUser(userID)
	if err != nil {
		return Transaction{}, lm.rejected(ActionReturn, userID, bookID, err)
	}
	i := slices.Index(user.BorrowedBooks, bookID)
	if i < 0 {
		return Transaction{}, lm.rejected(ActionReturn, userID, bookID,
			fmt.Errorf("user %d, book %d: %w", userID, bookID, ErrNotBorrowed))
	}
	user.BorrowedBooks = slices.Delete(user.BorrowedBooks, i, i+1)

	var bookp *Book
	book, err := lm.store.GetBook(bookID)
	switch {
	case err == nil:
		book.Available = true
		bookp = &book
	case !errors.Is(err, ErrNotFound):
		return Transaction{}, fmt.Errorf("return book %d: %w", bookID, err)
	default:
		lm.logger.Warn("returning book no longer in catalog", "user_id", userID, "book_id", bookID)
	}
	return lm.record(bookID, bookp, user, ActionReturn)
}

// Transactions returns the circulation log in id order.
func (lm *LibraryManager) Transactions() ([]Transaction, error) { return lm.store.Transactions() }

// VerifyTransactions checks the log's hash chain.
func (lm *LibraryManager) VerifyTransactions() error {
	txs, err := lm.store.Transactions()
	if err != nil {
		return err
	}
	return VerifyLedger(txs)
}

func (lm *LibraryManager) record(bookID int64, book *Book, user User, action Action) (Transaction, error) {
	tx := Transaction{
		ID:        lm.nextTxID,
		UserID:    user.ID,
		BookID:    bookID,
		Action:    action,
		Timestamp: lm.now(),
	}
	tx.Digest = digest(lm.lastDigest, tx)

	if err := lm.store.RecordCirculation(book, user, tx); err != nil {
		return Transaction{}, fmt.Errorf("record %s: %w", action, err)
	}
	lm.nextTxID++
	lm.lastDigest = tx.Digest
	lm.logger.Info("transaction recorded",
		"tx_id", tx.ID, "action", string(action), "user_id", tx.UserID, "book_id", tx.BookID)
	return tx, nil
}

func (lm *LibraryManager) rejected(action Action, userID, bookID int64, err error) error {
	lm.logger.Debug("circulation rejected",
		"action", string(action), "user_id", userID, "book_id", bookID, "kind", Kind(err))
	return err
}
