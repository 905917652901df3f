// Command inspect dumps the conversations stored in a BadgerDB instance as a
// table, for debugging a running or stopped server's data directory.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"social-chat/domain"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "conv:", "Prefix to scan")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Participants", "Messages", "Last Message At", "Created At", "Last Author"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var conversation domain.Conversation
				if err := json.Unmarshal(v, &conversation); err != nil {
					color.Warn.Printf("Skipping unreadable key %s: %v\n", string(item.Key()), err)
					return nil
				}

				lastAuthor := ""
				if n := len(conversation.Messages); n > 0 {
					lastAuthor = conversation.Messages[n-1].Author
				}
				table.Append([]string{
					conversation.ID.String(),
					fmt.Sprintf("%v", conversation.Participants),
					strconv.Itoa(len(conversation.Messages)),
					conversation.LastMessageAt.Format(time.RFC3339),
					conversation.CreatedAt.Format(time.RFC3339),
					lastAuthor,
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	color.Info.Printf("%d conversation(s) under prefix %q\n", count, *prefix)
	table.Render()
}
