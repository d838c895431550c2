package library

import "fmt"

// MemStore is a Store that keeps rows in insertion-ordered slices. Every
// lookup is a linear scan; catalogs are small.
type MemStore struct {
	books        []Book
	users        []User
	transactions []Transaction
}

// NewMemStore returns an empty slice-backed Store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) bookIndex(id int64) int {
	for i := range s.books {
		if s.books[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemStore) userIndex(id int64) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemStore) InsertBook(b Book) error {
	if s.bookIndex(b.ID) >= 0 {
		return fmt.Errorf("book %d already stored", b.ID)
	}
	s.books = append(s.books, b)
	return nil
}

func (s *MemStore) GetBook(id int64) (Book, error) {
	i := s.bookIndex(id)
	if i < 0 {
		return Book{}, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	return s.books[i], nil
}

func (s *MemStore) DeleteBook(id int64) (bool, error) {
	i := s.bookIndex(id)
	if i < 0 {
		return false, nil
	}
	s.books = append(s.books[:i], s.books[i+1:]...)
	return true, nil
}

func (s *MemStore) AllBooks() ([]Book, error) {
	return append([]Book{}, s.books...), nil
}

func (s *MemStore) InsertUser(u User) error {
	if s.userIndex(u.ID) >= 0 {
		return fmt.Errorf("user %d already stored", u.ID)
	}
	s.users = append(s.users, u.clone())
	return nil
}

func (s *MemStore) GetUser(id int64) (User, error) {
	i := s.userIndex(id)
	if i < 0 {
		return User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return s.users[i].clone(), nil
}

func (s *MemStore) DeleteUser(id int64) (bool, error) {
	i := s.userIndex(id)
	if i < 0 {
		return false, nil
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return true, nil
}

func (s *MemStore) AllUsers() ([]User, error) {
	users := make([]User, len(s.users))
	for i, u := range s.users {
		users[i] = u.clone()
	}
	return users, nil
}

func (s *MemStore) RecordCirculation(book *Book, user User, tx Transaction) error {
	// Validate everything before touching state so a failure changes nothing.
	bi := -1
	if book != nil {
		if bi = s.bookIndex(book.ID); bi < 0 {
			return fmt.Errorf("book %d: %w", book.ID, ErrNotFound)
		}
	}
	ui := s.userIndex(user.ID)
	if ui < 0 {
		return fmt.Errorf("user %d: %w", user.ID, ErrNotFound)
	}

	if bi >= 0 {
		s.books[bi].Available = book.Available
	}
	s.users[ui].BorrowedBooks = append([]int64{}, user.BorrowedBooks...)
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *MemStore) Transactions() ([]Transaction, error) {
	return append([]Transaction{}, s.transactions...), nil
}

func (s *MemStore) Close() error { return nil }
