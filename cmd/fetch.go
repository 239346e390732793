package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Flags for the fetch command.
var (
	flagPage   int
	flagServer string
	flagType   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <operation> [args]",
	Short: "Run one pipeline operation and print the result as JSON",
	Long: `Fetch runs a single catalog or extraction operation without starting
the HTTP server. Operations:

  search <query>        search the catalog
  popular               most popular titles
  latest                recently updated titles
  info <anime-id>       title details
  episodes <anime-id>   episode list
  servers <episode-id>  hosting servers per track type
  watch <episode-id>    resolved stream (honors --server and --type)`,
	Args: cobra.MinimumNArgs(1),
	RunE: fetchRun,
}

func init() {
	fetchCmd.Flags().IntVar(&flagPage, "page", 1, "Result page for search/popular/latest")
	fetchCmd.Flags().StringVar(&flagServer, "server", "HD-1", "Hosting server for watch")
	fetchCmd.Flags().StringVar(&flagType, "type", "sub", "Track type for watch: sub | dub | raw | mixed")
}

func fetchRun(cmd *cobra.Command, args []string) error {
	svc := buildService()
	ctx := context.Background()

	op := strings.ToLower(args[0])
	rest := args[1:]

	var (
		out any
		err error
	)
	switch op {
	case "search":
		if len(rest) == 0 {
			return fmt.Errorf("search requires a query")
		}
		out, err = svc.Search(ctx, strings.Join(rest, " "), flagPage)
	case "popular":
		out, err = svc.Popular(ctx, flagPage)
	case "latest":
		out, err = svc.Latest(ctx, flagPage)
	case "info":
		if len(rest) != 1 {
			return fmt.Errorf("info requires an anime id")
		}
		out, err = svc.Detail(ctx, rest[0])
	case "episodes":
		if len(rest) != 1 {
			return fmt.Errorf("episodes requires an anime id")
		}
		out, err = svc.Episodes(ctx, rest[0])
	case "servers":
		if len(rest) != 1 {
			return fmt.Errorf("servers requires an episode id")
		}
		out, err = svc.Servers(ctx, rest[0])
	case "watch":
		if len(rest) != 1 {
			return fmt.Errorf("watch requires an episode id")
		}
		out, err = svc.Stream(ctx, rest[0], flagServer, flagType)
	default:
		return fmt.Errorf("unknown operation %s", strconv.Quote(op))
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
