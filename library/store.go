package library

// Store holds the catalog's rows. The manager owns id assignment and all
// validation; a Store only reads and writes what it is given.
//
// Get methods return an error wrapping ErrNotFound for unknown ids and
// Delete methods report whether a row was removed. Returned rows are copies.
type Store interface {
	InsertBook(b Book) error
	GetBook(id int64) (Book, error)
	DeleteBook(id int64) (bool, error)
	AllBooks() ([]Book, error)

	InsertUser(u User) error
	GetUser(id int64) (User, error)
	DeleteUser(id int64) (bool, error)
	AllUsers() ([]User, error)

	// RecordCirculation persists the outcome of a lend or return: the
	// book's availability (skipped when book is nil), the user's borrowed
	// list and the new transaction, all or nothing.
	RecordCirculation(book *Book, user User, tx Transaction) error
	Transactions() ([]Transaction, error)

	Close() error
}

var (
	_ Store = (*MemStore)(nil)
	_ Store = (*Database)(nil)
)
