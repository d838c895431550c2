package library

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"
)

const (
	tableBooks        = "books"
	tableUsers        = "users"
	tableTransactions = "transactions"
)

var dialect = goqu.Dialect("sqlite3")

// Database is a Store backed by a private in-memory SQLite database. Its
// rows live exactly as long as the Database; nothing is written to disk.
type Database struct {
	db *sqlx.DB
}

// NewDatabase opens a fresh in-memory SQLite database and applies the schema.
func NewDatabase() (*Database, error) {
	db, err := sqlx.Open("sqlite3", "file::memory:?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every new connection to :memory: is a new, empty database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db}, nil
}

// Close closes the DB and discards its contents.
func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func applySchema(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE books (
            id INTEGER PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            genre TEXT NOT NULL,
            available BOOLEAN NOT NULL DEFAULT 1
        );`,
		`CREATE TABLE users (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            borrowed TEXT NOT NULL DEFAULT '[]'
        );`,
		// No foreign keys: removed books and users keep their history.
		`CREATE TABLE transactions (
            id INTEGER PRIMARY KEY,
            user_id INTEGER NOT NULL,
            book_id INTEGER NOT NULL,
            action TEXT NOT NULL CHECK (action IN ('Lend','Return')),
            occurred_at INTEGER NOT NULL,
            digest TEXT NOT NULL
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Row mapping
// ---------------------------------------------------------------------------

type userRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Borrowed string `db:"borrowed"`
}

func (r userRow) user() (User, error) {
	u := User{ID: r.ID, Name: r.Name, BorrowedBooks: []int64{}}
	if err := jsoniter.ConfigFastest.UnmarshalFromString(r.Borrowed, &u.BorrowedBooks); err != nil {
		return User{}, fmt.Errorf("decode borrowed books of user %d: %w", r.ID, err)
	}
	return u, nil
}

func encodeBorrowed(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	return jsoniter.ConfigFastest.MarshalToString(ids)
}

type transactionRow struct {
	ID         int64  `db:"id"`
	UserID     int64  `db:"user_id"`
	BookID     int64  `db:"book_id"`
	Action     string `db:"action"`
	OccurredAt int64  `db:"occurred_at"`
	Digest     string `db:"digest"`
}

func (r transactionRow) transaction() Transaction {
	return Transaction{
		ID:        r.ID,
		UserID:    r.UserID,
		BookID:    r.BookID,
		Action:    Action(r.Action),
		Timestamp: time.Unix(0, r.OccurredAt),
		Digest:    r.Digest,
	}
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

var bookCols = []any{"id", "title", "author", "genre", "available"}

func (d *Database) InsertBook(b Book) error {
	query, args, err := dialect.Insert(tableBooks).Rows(goqu.Record{
		"id": b.ID, "title": b.Title, "author": b.Author, "genre": b.Genre, "available": b.Available,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	_, err = d.db.Exec(query, args...)
	return err
}

func (d *Database) GetBook(id int64) (Book, error) {
	query, args, err := dialect.From(tableBooks).Select(bookCols...).
		Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return Book{}, err
	}
	var b Book
	err = d.db.QueryRowx(query, args...).Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Book{}, err
	}
	return b, nil
}

func (d *Database) DeleteBook(id int64) (bool, error) {
	return d.deleteByID(tableBooks, id)
}

// AllBooks returns books in id order.
func (d *Database) AllBooks() ([]Book, error) {
	query, args, err := dialect.From(tableBooks).Select(bookCols...).
		Order(goqu.C("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Available); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (d *Database) InsertUser(u User) error {
	borrowed, err := encodeBorrowed(u.BorrowedBooks)
	if err != nil {
		return err
	}
	query, args, err := dialect.Insert(tableUsers).Rows(goqu.Record{
		"id": u.ID, "name": u.Name, "borrowed": borrowed,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	_, err = d.db.Exec(query, args...)
	return err
}

func (d *Database) GetUser(id int64) (User, error) {
	query, args, err := dialect.From(tableUsers).Select("id", "name", "borrowed").
		Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return User{}, err
	}
	var row userRow
	err = d.db.Get(&row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return User{}, err
	}
	return row.user()
}

func (d *Database) DeleteUser(id int64) (bool, error) {
	return d.deleteByID(tableUsers, id)
}

// AllUsers returns users in id order.
func (d *Database) AllUsers() ([]User, error) {
	query, args, err := dialect.From(tableUsers).Select("id", "name", "borrowed").
		Order(goqu.C("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := d.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	users := make([]User, 0, len(rows))
	for _, r := range rows {
		u, err := r.user()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// ---------------------------------------------------------------------------
// Circulation
// ---------------------------------------------------------------------------

// RecordCirculation updates availability and the borrowed list and appends
// the transaction in one SQL transaction.
func (d *Database) RecordCirculation(book *Book, user User, t Transaction) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if book != nil {
		query, args, err := dialect.Update(tableBooks).
			Set(goqu.Record{"available": book.Available}).
			Where(goqu.C("id").Eq(book.ID)).Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		if err := execOne(tx, query, args, "book", book.ID); err != nil {
			return err
		}
	}

	borrowed, err := encodeBorrowed(user.BorrowedBooks)
	if err != nil {
		return err
	}
	query, args, err := dialect.Update(tableUsers).
		Set(goqu.Record{"borrowed": borrowed}).
		Where(goqu.C("id").Eq(user.ID)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	if err := execOne(tx, query, args, "user", user.ID); err != nil {
		return err
	}

	query, args, err = dialect.Insert(tableTransactions).Rows(goqu.Record{
		"id":          t.ID,
		"user_id":     t.UserID,
		"book_id":     t.BookID,
		"action":      string(t.Action),
		"occurred_at": t.Timestamp.UnixNano(),
		"digest":      t.Digest,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("insert transaction %d: %w", t.ID, err)
	}

	return tx.Commit()
}

// Transactions returns the log in id order.
func (d *Database) Transactions() ([]Transaction, error) {
	query, args, err := dialect.From(tableTransactions).
		Select("id", "user_id", "book_id", "action", "occurred_at", "digest").
		Order(goqu.C("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var rows []transactionRow
	if err := d.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	txs := make([]Transaction, len(rows))
	for i, r := range rows {
		txs[i] = r.transaction()
	}
	return txs, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (d *Database) deleteByID(table string, id int64) (bool, error) {
	query, args, err := dialect.Delete(table).Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return false, err
	}
	res, err := d.db.Exec(query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// execOne runs an UPDATE that must touch exactly one row.
func execOne(tx *sqlx.Tx, query string, args []any, what string, id int64) error {
	res, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
