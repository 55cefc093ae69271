package kv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/tKV/lib/store"
	"github.com/ValentinKolb/tKV/rpc/client"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := kvClient.Set(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(res)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Gets the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := kvClient.Get(args[0])
			if store.IsNotFound(err) {
				fmt.Println("key not found")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key and prints its previous value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := kvClient.Delete(args[0])
			if store.IsNotFound(err) {
				fmt.Println("key not found")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("deleted (previous value: %s)\n", prev)
			return nil
		},
	}
	execCmd = &cobra.Command{
		Use:   "exec [command...]",
		Short: "Sends a raw command line and prints the raw response",
		Long: `Sends a raw command line, e.g.

  tkv kv exec 'set "a b" "c d"'

The arguments are joined with spaces. The response is printed as sent by the server.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := kvClient.Exec(strings.Join(args, " "))
			if err != nil {
				if store.IsNotFound(err) || isServerError(err) {
					fmt.Printf("ERR: %v\n", err)
					return nil
				}
				return err
			}
			fmt.Printf("OK: %s\n", res)
			return nil
		},
	}
)

// isServerError reports whether err is an error response of the server
func isServerError(err error) bool {
	var serverErr *client.ServerError
	return errors.As(err, &serverErr)
}
