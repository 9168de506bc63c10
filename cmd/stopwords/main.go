// Command stopwords inspects the stop-word lists the enrichment service
// loads and runs text through them.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/stopwords"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/logger"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, apperrors.ErrUnsupportedLanguage) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "stopwords",
		Usage:     "Inspect stop-word lists and filter text with them",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding <language>.txt stop-word files",
				Value:   "data/stopwords",
				EnvVars: []string{"SE_STOPWORDS_DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: func(c *cli.Context) error {
			slog.SetDefault(logger.New(c.App.ErrWriter, c.String("log-level"), "text"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "languages",
				Usage:  "List the languages that have a stop-word file",
				Action: languagesCommand,
			},
			{
				Name:      "words",
				Usage:     "Print the stop words of a language",
				ArgsUsage: "<language>",
				Action:    wordsCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "count",
						Usage: "Print only the number of words",
					},
				},
			},
			{
				Name:      "filter",
				Usage:     "Remove stop words from text and print the remaining terms",
				ArgsUsage: "<language> <text...>",
				Action:    filterCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stem",
						Usage: "Stem the kept terms when the language has a stemmer",
					},
				},
			},
		},
	}
}

func registryFrom(c *cli.Context) *stopwords.Registry {
	return stopwords.NewRegistry(c.String("data-dir"))
}

func languagesCommand(c *cli.Context) error {
	langs, err := registryFrom(c).Languages()
	if err != nil {
		return err
	}
	for _, lang := range langs {
		fmt.Fprintln(c.App.Writer, lang)
	}
	return nil
}

func wordsCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("words takes exactly one language")
	}
	stopper, err := registryFrom(c).ForLanguage(c.Args().First())
	if err != nil {
		return err
	}
	if c.Bool("count") {
		fmt.Fprintln(c.App.Writer, stopper.Len())
		return nil
	}
	for _, w := range stopper.Words() {
		fmt.Fprintln(c.App.Writer, w)
	}
	return nil
}

func filterCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("filter takes a language and some text")
	}
	lang := c.Args().First()
	text := strings.Join(c.Args().Tail(), " ")
	result, err := analysis.NewAnalyzer(registryFrom(c), lang).Analyze(analysis.Request{
		Text:     text,
		Language: lang,
		Stem:     c.Bool("stem"),
	})
	if err != nil {
		return err
	}
	terms := make([]string, len(result.Tokens))
	for i, tok := range result.Tokens {
		terms[i] = tok.Term
	}
	fmt.Fprintln(c.App.Writer, strings.Join(terms, " "))
	return nil
}
