package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/employer-resolve/internal/disclosure"
	"github.com/sells-group/employer-resolve/internal/fetcher"
)

var (
	fetchDir   string
	fetchUnzip bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]...",
	Short: "Download disclosure extracts",
	Long:  "Downloads extracts with per-host rate limiting and retries. With no arguments the URLs in fetch.urls are used.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}
		urls := args
		if len(urls) == 0 {
			urls = cfg.Fetch.URLs
		}
		if len(urls) == 0 {
			return eris.New("no URLs given and fetch.urls is empty")
		}
		dir := fetchDir
		if dir == "" {
			dir = cfg.Fetch.Dir
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "create %s", dir)
		}

		paths, err := fetcher.DownloadAll(cmd.Context(), initFetcher(), urls, dir, cfg.Fetch.Workers)
		if err != nil {
			return err
		}
		if fetchUnzip {
			if paths, err = unzipAll(paths, dir); err != nil {
				return err
			}
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

// unzipAll replaces each .zip path with the extracts it contains.
func unzipAll(paths []string, dir string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".zip") {
			out = append(out, p)
			continue
		}
		files, err := fetcher.ExtractZIP(p, dir, disclosure.IsExtract)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDir, "dir", "", "download directory (default fetch.dir)")
	fetchCmd.Flags().BoolVar(&fetchUnzip, "unzip", false, "extract .zip downloads into the directory")
	rootCmd.AddCommand(fetchCmd)
}
