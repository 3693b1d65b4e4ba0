package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"campuslink/domain"
)

// Prints the stored credential pair and its decoded claims without taking
// the Badger lock from a running client.
func main() {
	dbPath := flag.String("db", ".campuslink/credentials", "Path to the credential store")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening the credential store: ", err)
	}
	defer db.Close()

	cred, found, err := readCredential(db)
	if err != nil {
		log.Fatal("Error while reading the stored pair: ", err)
	}
	if !found {
		fmt.Println("No credential stored; the client is anonymous.")
		return
	}

	claims, err := cred.DecodeClaims()
	if err != nil {
		log.Fatal("Stored access token does not decode: ", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Claim", "Value"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := [][]string{
		{"username", claims.Username},
		{"user_id", fmt.Sprintf("%d", claims.UserID)},
		{"expires", formatNumericDate(claims.ExpiresAt)},
		{"issued", formatNumericDate(claims.IssuedAt)},
		{"access (prefix)", clip(cred.Access, 24)},
		{"refresh (prefix)", clip(cred.Refresh, 24)},
	}
	lo.ForEach(rows, func(row []string, _ int) { table.Append(row) })
	table.Render()

	session := domain.SessionOf(cred, true, time.Now())
	fmt.Printf("\nDerived session state: %s\n", session.State)
}

func openDB(path string) (*badger.DB, error) {
	// BypassLockGuard allows opening while a client process holds the lock.
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}

func readCredential(db *badger.DB) (domain.Credential, bool, error) {
	var cred domain.Credential
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("auth:tokens"))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &cred)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Credential{}, false, nil
	}
	if err != nil {
		return domain.Credential{}, false, err
	}
	return cred, true, nil
}

func formatNumericDate(d *jwt.NumericDate) string {
	if d == nil {
		return "-"
	}
	return d.UTC().Format(time.RFC822)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
