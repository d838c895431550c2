package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the example session and draw the charts",
	Long: `demo adds two users and three books, lends two books, returns one and
then renders the genre, borrowing and availability charts. The seed from
--config is loaded first, so demo ids continue after it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openCatalog(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer mgr.Close()

		out := cmd.OutOrStdout()
		if err := runDemo(out, mgr); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return newRenderer(cfg, out).RenderAll(mgr)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// runDemo plays the example session against mgr, printing one status line
// per step. Catalog refusals are printed and the session goes on.
func runDemo(out io.Writer, mgr *library.LibraryManager) error {
	users := map[string]int64{}
	for _, name := range []string{"Alice", "Bob"} {
		id, err := mgr.AddUser(name)
		if err != nil {
			return err
		}
		users[name] = id
		fmt.Fprintf(out, "User '%s' added with ID %d\n", name, id)
	}

	books := map[string]int64{}
	for _, b := range []library.Book{
		{Title: "1984", Author: "George Orwell", Genre: "Fiction"},
		{Title: "A Brief History of Time", Author: "Stephen Hawking", Genre: "Science"},
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Fiction"},
	} {
		id, err := mgr.AddBook(b.Title, b.Author, b.Genre)
		if err != nil {
			return err
		}
		books[b.Title] = id
		fmt.Fprintf(out, "Book '%s' added with ID %d\n", b.Title, id)
	}

	steps := []struct {
		action library.Action
		user   string
		book   string
	}{
		{library.ActionLend, "Alice", "1984"},
		{library.ActionLend, "Bob", "A Brief History of Time"},
		{library.ActionReturn, "Alice", "1984"},
	}
	for _, st := range steps {
		userID, bookID := users[st.user], books[st.book]
		var err error
		if st.action == library.ActionLend {
			_, err = mgr.LendBook(userID, bookID)
		} else {
			_, err = mgr.ReturnBook(userID, bookID)
		}
		switch {
		case err == nil && st.action == library.ActionLend:
			fmt.Fprintf(out, "Book ID %d has been lent to User ID %d.\n", bookID, userID)
		case err == nil:
			fmt.Fprintf(out, "Book ID %d returned by User ID %d.\n", bookID, userID)
		case library.Kind(err) == "internal":
			return err
		default:
			fmt.Fprintf(out, "%s refused (%s): %v\n", st.action, library.Kind(err), err)
		}
	}
	return nil
}

// chartsCmd renders the charts of the seed catalog from --config.
var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Draw the charts of the configured seed catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openCatalog(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer mgr.Close()

		return newRenderer(cfg, cmd.OutOrStdout()).RenderAll(mgr)
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
}
