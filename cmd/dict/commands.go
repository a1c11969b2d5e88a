package dict

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/spf13/cobra"
)

var (
	queryCmd = &cobra.Command{
		Use:   "query [word]",
		Short: "Prints the meanings of a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rpcDict.Query(args[0])
			if err != nil {
				return err
			}
			printResponse(args[0], resp)
			return nil
		},
	}
	addCmd = &cobra.Command{
		Use:   "add [word] [meaning]...",
		Short: "Adds a new word with one or more meanings",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rpcDict.Add(args[0], args[1:])
			if err != nil {
				return err
			}
			printResponse(args[0], resp)
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [word]",
		Short: "Removes a word and all its meanings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rpcDict.Remove(args[0])
			if err != nil {
				return err
			}
			printResponse(args[0], resp)
			return nil
		},
	}
	addMeaningCmd = &cobra.Command{
		Use:   "add-meaning [word] [meaning]",
		Short: "Adds a meaning to an existing word",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rpcDict.AddMeaning(args[0], args[1])
			if err != nil {
				return err
			}
			printResponse(args[0], resp)
			return nil
		},
	}
	updateMeaningCmd = &cobra.Command{
		Use:   "update-meaning [word] [old meaning] [new meaning]",
		Short: "Replaces a meaning of a word, keeping its position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rpcDict.UpdateMeaning(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printResponse(args[0], resp)
			return nil
		},
	}
)

// printResponse prints a server response in a human readable form
func printResponse(word string, resp *common.Response) {
	fmt.Print(formatResponse(word, resp))
}

func formatResponse(word string, resp *common.Response) string {
	var sb strings.Builder
	if resp.OK() && resp.Message == "" {
		fmt.Fprintf(&sb, "%s:\n", word)
		for i, m := range resp.Meanings {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, m)
		}
		return sb.String()
	}
	fmt.Fprintf(&sb, "[%s] %s\n", resp.Status, resp.Message)
	return sb.String()
}
