// qianli searches Chinese content platforms through a Chrome instance that is
// already running with remote debugging enabled.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-qianli/qianli"
	"github.com/go-qianli/qianli/lib/defaults"
	"github.com/go-qianli/qianli/lib/mcrawl"
	"github.com/go-qianli/qianli/lib/sites"
)

var (
	controlURL string
	limit      int
	asJSON     bool
)

var stderrLog = qianli.LogFn(func(vs ...interface{}) {
	fmt.Fprintln(os.Stderr, vs...)
})

func main() {
	root := &cobra.Command{
		Use:   "qianli",
		Short: "Search Chinese content platforms through a running Chrome",
		Long: "qianli drives an already-running Chrome over its devtools protocol to\n" +
			"search js-heavy Chinese platforms. It never starts or stops the browser.\n\n" +
			"Start Chrome first:\n" +
			"  google-chrome --remote-debugging-port=9222 --user-data-dir=$HOME/.qianli-chrome",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&controlURL, "control-url", defaults.URL,
		"devtools endpoint, falls back to $QIANLI_URL then http://127.0.0.1:9222")
	root.PersistentFlags().IntVar(&limit, "limit", defaults.Limit, "max results per source")
	root.PersistentFlags().BoolVar(&asJSON, "json", defaults.JSON, "print results as JSON")

	root.AddCommand(
		searchCommand(sites.Wechat, "Search WeChat articles via Sogou"),
		searchCommand(sites.Kr36, "Search 36kr articles"),
		xhsCommand(),
		zhihuCommand(),
		allCommand(),
		readCommand(),
		siteCommand(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newClient builds the client and gates on the browser being there at all, so
// every subcommand fails fast with the same hint.
func newClient() (*qianli.Client, error) {
	c := qianli.New(controlURL)
	if !defaults.Quiet {
		c.Logger(stderrLog)
	}
	if !c.Reachable() {
		return nil, fmt.Errorf("no Chrome with remote debugging found, start one with:\n" +
			"  google-chrome --remote-debugging-port=9222 --user-data-dir=$HOME/.qianli-chrome")
	}
	return c, nil
}

func searchCommand(site sites.Site, short string) *cobra.Command {
	return &cobra.Command{
		Use:   site.Name + " <query>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			list, err := c.Search(cmd.Context(), site, args[0], limit)
			if err != nil {
				return err
			}
			return output(os.Stdout, list)
		},
	}
}

func xhsCommand() *cobra.Command {
	var useMC bool

	cmd := &cobra.Command{
		Use:   "xhs <query>",
		Short: "Search Xiaohongshu notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if useMC {
				list, err := runMC(cmd.Context(), mcrawl.PlatformXHS, args[0])
				if err != nil {
					return err
				}
				return output(os.Stdout, list)
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			list, err := c.Search(cmd.Context(), sites.XHS, args[0], limit)
			if err != nil {
				return err
			}
			return output(os.Stdout, list)
		},
	}
	cmd.Flags().BoolVar(&useMC, "mc", false, "route through a local MediaCrawler checkout")
	return cmd
}

func zhihuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "zhihu <query>",
		Short: "Search Zhihu via MediaCrawler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := runMC(cmd.Context(), mcrawl.PlatformZhihu, args[0])
			if err != nil {
				return err
			}
			return output(os.Stdout, list)
		},
	}
}

func allCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all <query>",
		Short: "Search every built-in source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			// one bad source never takes the batch down
			var combined []sites.Record
			for _, site := range sites.All() {
				list, err := c.Search(cmd.Context(), site, args[0], limit)
				if err != nil {
					fmt.Fprintf(os.Stderr, "[%s] %v\n", site.Name, err)
					continue
				}
				if len(list) == 0 {
					fmt.Fprintf(os.Stderr, "[%s] no results\n", site.Name)
				}
				combined = append(combined, list...)
			}
			return output(os.Stdout, combined)
		},
	}
}

func readCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read <url>",
		Short: "Open a page and print its body text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			text, err := c.ReadPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

func siteCommand() *cobra.Command {
	var sitesFile string

	cmd := &cobra.Command{
		Use:   "site <name> <query>",
		Short: "Run a user-defined site bundle from a yaml file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := sites.Load(sitesFile)
			if err != nil {
				return err
			}

			var site sites.Site
			found := false
			for _, s := range list {
				if s.Name == args[0] {
					site, found = s, true
					break
				}
			}
			if !found {
				return fmt.Errorf("no site %q in %s", args[0], sitesFile)
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			records, err := c.Search(cmd.Context(), site, args[1], limit)
			if err != nil {
				return err
			}
			return output(os.Stdout, records)
		},
	}
	cmd.Flags().StringVar(&sitesFile, "sites", "", "yaml file with site bundles")
	_ = cmd.MarkFlagRequired("sites")
	return cmd
}

func runMC(ctx context.Context, platform, query string) ([]sites.Record, error) {
	r := mcrawl.New()
	if defaults.MCDir != "" {
		r.Dir = defaults.MCDir
	}
	if !defaults.Quiet {
		r.Logger = stderrLog
	}
	return r.Search(ctx, platform, query, limit)
}
