package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"library-catalog/library"
	"library-catalog/report"
)

var shellJSON bool

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive catalog console",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openCatalog(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer mgr.Close()

		out := cmd.OutOrStdout()
		sh := &shell{
			sc:     bufio.NewScanner(cmd.InOrStdin()),
			out:    out,
			mgr:    mgr,
			render: newRenderer(cfg, out),
			json:   shellJSON,
		}
		sh.welcome()
		return sh.run()
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().BoolVar(&shellJSON, "json", false, "Print listings as JSON")
}

// shell is a line-oriented console over one catalog. Commands prompt for
// their fields one line at a time.
type shell struct {
	sc     *bufio.Scanner
	out    io.Writer
	mgr    *library.LibraryManager
	render *report.Renderer
	json   bool
}

func (s *shell) welcome() {
	fmt.Fprintln(s.out, "Library catalog. Nothing is saved when you exit.")
	s.help()
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  Books: add book, remove book, list books")
	fmt.Fprintln(s.out, "  Users: add user, remove user, list users")
	fmt.Fprintln(s.out, "  Circulation: lend, return, transactions, verify")
	fmt.Fprintln(s.out, "  Reports: charts")
	fmt.Fprintln(s.out, "  System: help, exit")
}

func (s *shell) run() error {
	for {
		fmt.Fprint(s.out, "\n> ")
		if !s.sc.Scan() {
			return s.sc.Err()
		}
		cmd := strings.ToLower(strings.TrimSpace(s.sc.Text()))

		switch cmd {
		case "add book":
			s.addBook()
		case "remove book":
			s.removeBook()
		case "add user":
			s.addUser()
		case "remove user":
			s.removeUser()
		case "list books":
			s.listBooks()
		case "list users":
			s.listUsers()
		case "lend":
			s.lend()
		case "return":
			s.returnBook()
		case "transactions":
			s.listTransactions()
		case "verify":
			s.verify()
		case "charts":
			if err := s.render.RenderAll(s.mgr); err != nil {
				fmt.Fprintf(s.out, "Error rendering charts: %v\n", err)
			}
		case "help":
			s.help()
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Unknown command. Type 'help' to list commands.")
		}
	}
}

// ask prints label and reads one trimmed line.
func (s *shell) ask(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *shell) askID(label string) (int64, bool) {
	raw, ok := s.ask(label)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid %s: %s\n", strings.ToLower(strings.TrimSuffix(label, ": ")), raw)
		return 0, false
	}
	return id, true
}

// ------------------ Books ------------------

func (s *shell) addBook() {
	title, ok := s.ask("Title: ")
	if !ok {
		return
	}
	author, ok := s.ask("Author: ")
	if !ok {
		return
	}
	genre, ok := s.ask("Genre: ")
	if !ok {
		return
	}
	id, err := s.mgr.AddBook(title, author, genre)
	if err != nil {
		fmt.Fprintf(s.out, "Error adding book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Book '%s' added with ID %d\n", title, id)
}

func (s *shell) removeBook() {
	id, ok := s.askID("Book ID: ")
	if !ok {
		return
	}
	if err := s.mgr.RemoveBook(id); err != nil {
		fmt.Fprintf(s.out, "Error removing book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Book with ID %d removed\n", id)
}

func (s *shell) listBooks() {
	books, err := s.mgr.Books()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if s.json {
		s.writeJSON(books)
		return
	}
	if len(books) == 0 {
		fmt.Fprintln(s.out, "No books in catalog.")
		return
	}
	users, err := s.mgr.Users()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "%-5s %-30s %-25s %-15s %-10s %s\n", "ID", "Title", "Author", "Genre", "Available", "Borrower")
	fmt.Fprintln(s.out, strings.Repeat("-", 105))
	for _, b := range books {
		availStr, borrower := "Yes", "None"
		if !b.Available {
			availStr, borrower = "No", "Unknown"
			for _, u := range users {
				if u.Holds(b.ID) {
					borrower = fmt.Sprintf("%s (ID: %d)", u.Name, u.ID)
					break
				}
			}
		}
		fmt.Fprintf(s.out, "%-5d %-30s %-25s %-15s %-10s %s\n",
			b.ID,
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			truncateString(b.Genre, 15),
			availStr,
			borrower)
	}
}

// ------------------ Users ------------------

func (s *shell) addUser() {
	name, ok := s.ask("Name: ")
	if !ok {
		return
	}
	id, err := s.mgr.AddUser(name)
	if err != nil {
		fmt.Fprintf(s.out, "Error adding user: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "User '%s' added with ID %d\n", name, id)
}

func (s *shell) removeUser() {
	id, ok := s.askID("User ID: ")
	if !ok {
		return
	}
	if err := s.mgr.RemoveUser(id); err != nil {
		fmt.Fprintf(s.out, "Error removing user: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "User with ID %d removed\n", id)
}

func (s *shell) listUsers() {
	users, err := s.mgr.Users()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if s.json {
		s.writeJSON(users)
		return
	}
	if len(users) == 0 {
		fmt.Fprintln(s.out, "No users registered.")
		return
	}

	fmt.Fprintf(s.out, "%-5s %-30s %s\n", "ID", "Name", "Borrowed Books")
	fmt.Fprintln(s.out, strings.Repeat("-", 55))
	for _, u := range users {
		ids := make([]string, len(u.BorrowedBooks))
		for i, id := range u.BorrowedBooks {
			ids[i] = strconv.FormatInt(id, 10)
		}
		borrowed := strings.Join(ids, ", ")
		if borrowed == "" {
			borrowed = "None"
		}
		fmt.Fprintf(s.out, "%-5d %-30s %s\n", u.ID, truncateString(u.Name, 30), borrowed)
	}
}

// ------------------ Circulation ------------------

func (s *shell) circulationIDs() (userID, bookID int64, ok bool) {
	if userID, ok = s.askID("User ID: "); !ok {
		return 0, 0, false
	}
	if bookID, ok = s.askID("Book ID: "); !ok {
		return 0, 0, false
	}
	return userID, bookID, true
}

func (s *shell) lend() {
	userID, bookID, ok := s.circulationIDs()
	if !ok {
		return
	}
	tx, err := s.mgr.LendBook(userID, bookID)
	if err != nil {
		fmt.Fprintf(s.out, "Error lending book (%s): %v\n", library.Kind(err), err)
		return
	}
	fmt.Fprintf(s.out, "Book ID %d lent to User ID %d (transaction %d)\n", bookID, userID, tx.ID)
}

func (s *shell) returnBook() {
	userID, bookID, ok := s.circulationIDs()
	if !ok {
		return
	}
	tx, err := s.mgr.ReturnBook(userID, bookID)
	if err != nil {
		fmt.Fprintf(s.out, "Error returning book (%s): %v\n", library.Kind(err), err)
		return
	}
	fmt.Fprintf(s.out, "Book ID %d returned by User ID %d (transaction %d)\n", bookID, userID, tx.ID)
}

func (s *shell) listTransactions() {
	txs, err := s.mgr.Transactions()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if s.json {
		s.writeJSON(txs)
		return
	}
	if len(txs) == 0 {
		fmt.Fprintln(s.out, "No transactions yet.")
		return
	}

	fmt.Fprintf(s.out, "%-5s %-8s %-8s %-8s %s\n", "ID", "User", "Book", "Action", "Time")
	fmt.Fprintln(s.out, strings.Repeat("-", 55))
	for _, tx := range txs {
		fmt.Fprintf(s.out, "%-5d %-8d %-8d %-8s %s\n",
			tx.ID, tx.UserID, tx.BookID, tx.Action, tx.Timestamp.Format("2006-01-02 15:04:05"))
	}
}

func (s *shell) verify() {
	if err := s.mgr.VerifyTransactions(); err != nil {
		fmt.Fprintf(s.out, "Transaction log check failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Transaction log OK")
}

func (s *shell) writeJSON(v any) {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(s.out, "Error encoding JSON: %v\n", err)
	}
}
