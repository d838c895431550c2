package library

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// digest chains tx to the previous entry's digest:
// blake2b-256(prev || id || user || book || action || unix nanos).
func digest(prev string, tx Transaction) string {
	h, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes

	prevRaw, _ := hex.DecodeString(prev)
	h.Write(prevRaw)

	var buf [8]byte
	for _, v := range []int64{tx.ID, tx.UserID, tx.BookID} {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	h.Write([]byte(tx.Action))
	binary.BigEndian.PutUint64(buf[:], uint64(tx.Timestamp.UnixNano()))
	h.Write(buf[:])

	return hex.EncodeToString(h.Sum(nil))
}

// VerifyLedger walks txs in order and checks ids increase by one from 1
// and that every digest matches its predecessor.
func VerifyLedger(txs []Transaction) error {
	prev := ""
	for i, tx := range txs {
		if want := int64(i + 1); tx.ID != want {
			return fmt.Errorf("%w: entry %d has id %d, want %d", ErrLedgerBroken, i, tx.ID, want)
		}
		if got := digest(prev, tx); got != tx.Digest {
			return fmt.Errorf("%w: transaction %d digest mismatch", ErrLedgerBroken, tx.ID)
		}
		prev = tx.Digest
	}
	return nil
}
