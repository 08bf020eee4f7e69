package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/grevocab/internal/extract"
	"github.com/example/grevocab/internal/importer"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		existingPath string
		all          bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Find word definitions in a document",
		Long: `Find word definitions in a .txt, .html, .docx or .pdf document and print
them ranked by confidence. Low-confidence candidates are hidden unless --all
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			text, err := extract.NewDecoder(a.cfg.Extract.MaxDocumentBytes).Decode(filepath.Base(args[0]), "", data)
			if err != nil {
				return err
			}

			existing, err := readWordSet(existingPath)
			if err != nil {
				return err
			}

			review := extract.NewReview(extract.Extract(text, existing))
			candidates := make([]extract.Candidate, 0, len(review.Candidates))
			for _, i := range review.Visible(all) {
				candidates = append(candidates, review.Candidates[i])
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(candidates)
			}
			return printCandidates(cmd.OutOrStdout(), candidates)
		},
	}

	cmd.Flags().StringVar(&existingPath, "existing", "", "file of words to skip (one per line, or a word list export)")
	cmd.Flags().BoolVar(&all, "all", false, "include low-confidence candidates")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printCandidates(w io.Writer, candidates []extract.Candidate) error {
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(w, "no definitions found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tCONFIDENCE\tSELECTED\tDEFINITION")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%.2f\t%t\t%s\n", c.Word, c.Confidence, c.Selected, c.Definition)
	}
	return tw.Flush()
}

// readWordSet loads lowercased words from a word list export or a plain
// file with one word per line. An empty path yields an empty set.
func readWordSet(path string) (map[string]struct{}, error) {
	words := make(map[string]struct{})
	if path == "" {
		return words, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	if importer.IsSupported(path) {
		res, err := importer.Parse(path, f, nil)
		if err != nil {
			return nil, err
		}
		for _, wd := range append(res.Valid, res.Duplicates...) {
			words[strings.ToLower(wd.Word)] = struct{}{}
		}
		return words, nil
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words[strings.ToLower(w)] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return words, nil
}
