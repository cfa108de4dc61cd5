package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"messenger/domain"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// Small operator tool: dump the message keyspace as a table.
// Run with -prefix fav: or -prefix profile: to inspect the other namespaces
// as raw JSON.
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	header := fmt.Sprintf(" %s @ %s ", *prefix, *dbPath)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "From", "To", "Seen", "Body", "Attachment"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var msg domain.Message
				if err := json.Unmarshal(v, &msg); err != nil {
					// Not a message row (index entry, favorite, profile):
					// print it raw instead of stopping the scan.
					fmt.Printf("%s\t%s\n", item.Key(), v)
					return nil
				}
				attachment := ""
				if msg.Attachment != nil {
					attachment = msg.Attachment.OriginalName
				}
				body := msg.Body
				if len(body) > 40 {
					body = body[:40] + "..."
				}
				table.Append([]string{
					string(item.Key()),
					msg.From.UID(),
					msg.To.UID(),
					fmt.Sprintf("%t", msg.Seen),
					body,
					attachment,
				})
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
	table.Render()
}
