// Command fbshell connects to a Firebird/InterBase server and runs one SQL
// statement, printing any result set as tab-separated rows.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fbwire/fbclient/fbclient"
)

func main() {
	host := flag.String("host", "localhost", "server host")
	port := flag.Int("port", 3050, "server port")
	user := flag.String("user", "sysdba", "database user")
	pass := flag.String("pass", "", "database password")
	charset := flag.String("charset", "utf8", "connection charset")
	timeout := flag.Duration("timeout", 10*time.Second, "connection timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: fbshell [flags] <database> <sql>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	dbPath, sql := args[0], strings.Join(args[1:], " ")

	client, err := fbclient.Open(dbPath, *user, *pass, fbclient.ConnectOptions{
		Host:    *host,
		Port:    *port,
		Timeout: *timeout,
		Charset: *charset,
	})
	if err != nil {
		fatal("connect", err)
	}
	defer client.Close()

	if err := client.InTransaction(fbclient.ReadCommitted.Config(), func(tx *fbclient.Transaction) error {
		return runStatement(client, tx, sql)
	}); err != nil {
		fatal("execute", err)
	}
}

func runStatement(client *fbclient.Client, tx *fbclient.Transaction, sql string) error {
	stmt, err := client.Prepare(tx, sql)
	if err != nil {
		return err
	}

	switch stmt.StmtType() {
	case fbclient.StmtSelect, fbclient.StmtSelectForUpdate:
		return printResultSet(client, tx, sql)
	default:
		return client.Exec(tx, sql)
	}
}

func printResultSet(client *fbclient.Client, tx *fbclient.Transaction, sql string) error {
	rows, err := client.Query(tx, sql)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols := rows.Columns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.AliasName
	}
	fmt.Println(strings.Join(header, "\t"))

	for rows.Next() {
		fields := make([]string, len(cols))
		for i := range cols {
			fields[i] = formatValue(rows.Value(i))
		}
		fmt.Println(strings.Join(fields, "\t"))
	}
	return rows.Err()
}

func formatValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func fatal(op string, err error) {
	fmt.Fprintf(os.Stderr, "fbshell: %s: %v\n", op, err)
	os.Exit(1)
}
